package conformance

import "testing"

func TestConformance(t *testing.T) {
	cases, err := LoadDir("testdata")
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(cases) == 0 {
		t.Fatal("no conformance cases loaded from testdata")
	}

	byFile := make(map[string][]LoadedCase)
	for _, lc := range cases {
		byFile[lc.File] = append(byFile[lc.File], lc)
	}

	for file, fileCases := range byFile {
		t.Run(file, func(t *testing.T) {
			for _, lc := range fileCases {
				t.Run(lc.Case.Name, func(t *testing.T) {
					result := Run(lc)
					if ok, reason := result.Matches(lc.Case.Expect); !ok {
						t.Errorf("%s: %s", lc.Machine, reason)
					}
				})
			}
		})
	}
}

package main

import "testing"

const inlineSine = `{
  "sample_rate": 48000, "voice_count": 1, "operator_count": 1, "amp_scale": 1,
  "events": [
    {"params": 2348, "voice": {"voice_id": 0, "graph": [0]},
     "operator": {"operator_id": 0, "wave": 0, "freq": {"mask":1,"v0":440}, "amp": {"mask":1,"v0":0.1}, "time": 480}}
  ]
}`

func TestRunVersionFlag(t *testing.T) {
	if code := run([]string{"-v"}); code != 0 {
		t.Fatalf("run(-v) = %d, want 0", code)
	}
}

func TestRunRequiresPositionalArgs(t *testing.T) {
	if code := run([]string{}); code == 0 {
		t.Fatalf("expected nonzero exit with no score given")
	}
}

func TestRunCheckOnlyInlineScore(t *testing.T) {
	if code := run([]string{"-e", "-c", inlineSine}); code != 0 {
		t.Fatalf("run(-e -c <inline>) = %d, want 0", code)
	}
}

func TestRunRejectsMalformedInlineScore(t *testing.T) {
	if code := run([]string{"-e", "-c", "not json"}); code == 0 {
		t.Fatalf("expected nonzero exit for malformed inline score")
	}
}

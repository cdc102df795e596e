package logging

import "testing"

func TestNewProgressSampler(t *testing.T) {
	tests := []struct {
		name       string
		bucketSize float64
		wantSize   float64
	}{
		{"default bucket size for zero", 0, 5},
		{"default bucket size for negative", -1, 5},
		{"custom bucket size", 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewProgressSampler(tt.bucketSize)
			if s.bucketSize != tt.wantSize {
				t.Errorf("bucketSize = %v, want %v", s.bucketSize, tt.wantSize)
			}
			if s.lastBucket != -1 {
				t.Errorf("lastBucket = %d, want -1", s.lastBucket)
			}
		})
	}
}

func TestProgressSampler_NilSampler(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(50, "upscale") {
		t.Error("ShouldLog on nil sampler should always return true")
	}
	s.Reset()
}

func TestProgressSampler_BucketsPerFrame(t *testing.T) {
	s := NewProgressSampler(10)
	const total = 200
	emitted := 0
	for done := 1; done <= total; done++ {
		if s.ShouldLog(float64(done)/total*100, "upscale") {
			emitted++
		}
	}
	// first call (stage change) plus one per 10% bucket from 10..100
	if emitted != 11 {
		t.Fatalf("emitted %d progress lines, want 11", emitted)
	}
}

func TestProgressSampler_StageChangeResetsBucket(t *testing.T) {
	s := NewProgressSampler(5)
	if !s.ShouldLog(50, "extract") {
		t.Fatal("first event should log")
	}
	if s.ShouldLog(51, "extract") {
		t.Fatal("same bucket should not log")
	}
	if !s.ShouldLog(0, "upscale") {
		t.Fatal("stage change should log")
	}
	if s.lastBucket != 0 {
		t.Fatalf("lastBucket = %d, want 0", s.lastBucket)
	}
	s.Reset()
	if s.lastStage != "" || s.lastBucket != -1 {
		t.Fatalf("Reset left state: %+v", s)
	}
}

package main

import "testing"

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name        string
		in          string
		want        string
		wantChanged bool
		wantErr     bool
	}{
		{name: "already normalized", in: "2024-03-01T12:00:00.000000Z", want: "2024-03-01T12:00:00.000000Z"},
		{name: "rfc3339", in: "2024-03-01T12:00:00Z", want: "2024-03-01T12:00:00.000000Z", wantChanged: true},
		{name: "nanoseconds truncated", in: "2024-03-01T12:00:00.123456789Z", want: "2024-03-01T12:00:00.123456Z", wantChanged: true},
		{name: "offset to utc", in: "2024-03-01 14:00:00+02:00", want: "2024-03-01T12:00:00.000000Z", wantChanged: true},
		{name: "sqlite datetime", in: "2024-03-01 12:00:00", want: "2024-03-01T12:00:00.000000Z", wantChanged: true},
		{name: "garbage", in: "yesterday", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, changed, err := normalize(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Error("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want || changed != tc.wantChanged {
				t.Errorf("Expected %q (changed=%v), got %q (changed=%v)", tc.want, tc.wantChanged, got, changed)
			}
		})
	}
}

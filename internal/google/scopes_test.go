package google

import "testing"

func TestHasRequiredScopes(t *testing.T) {
	tests := []struct {
		name    string
		granted []string
		want    bool
	}{
		{
			name:    "exact match",
			granted: RequiredScopes,
			want:    true,
		},
		{
			name:    "superset",
			granted: append([]string{"https://www.googleapis.com/auth/drive"}, RequiredScopes...),
			want:    true,
		},
		{
			name:    "missing one",
			granted: RequiredScopes[1:],
			want:    false,
		},
		{
			name:    "empty",
			granted: nil,
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasRequiredScopes(tt.granted); got != tt.want {
				t.Errorf("HasRequiredScopes() = %v, want %v", got, tt.want)
			}
		})
	}
}

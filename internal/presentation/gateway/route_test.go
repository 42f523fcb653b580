package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoute(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		want    route
		wantErr bool
	}{
		{
			name: "service and command",
			path: "/user/create-user",
			want: route{Service: "user", Command: "createUser"},
		},
		{
			name: "with id segment",
			path: "/item/get-item/42",
			want: route{Service: "item", Command: "getItem", ID: "42"},
		},
		{
			name: "extra segments ignored",
			path: "/item/get-item/42/junk",
			want: route{Service: "item", Command: "getItem", ID: "42"},
		},
		{
			name: "doubled slashes collapse",
			path: "//box//open-box//7",
			want: route{Service: "box", Command: "openBox", ID: "7"},
		},
		{
			name:    "single segment",
			path:    "/user",
			wantErr: true,
		},
		{
			name:    "root",
			path:    "/",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRoute(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCamelCommand(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"open-box", "openBox"},
		{"get-items-by-user", "getItemsByUser"},
		{"login", "login"},
		{"check-token", "checkToken"},
		{"a--b", "aB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, camelCommand(tt.in), "camelCommand(%q)", tt.in)
	}
}

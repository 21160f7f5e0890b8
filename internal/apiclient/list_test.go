package apiclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeList(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []int
		wantErr bool
	}{
		{name: "bare-array", raw: `[1,2,3]`, want: []int{1, 2, 3}},
		{name: "wrapped-data", raw: `{"data":[4],"total":1}`, want: []int{4}},
		{name: "wrapped-second-key", raw: `{"opportunities":[5,6]}`, want: []int{5, 6}},
		{name: "empty-body", raw: ``, want: []int{}},
		{name: "null", raw: `null`, want: []int{}},
		{name: "wrapped-null", raw: `{"data":null}`, want: []int{}},
		{name: "unknown-wrapper", raw: `{"items":[1]}`, wantErr: true},
		{name: "garbage", raw: `{"data":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeList[int]([]byte(tt.raw), "data", "opportunities")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

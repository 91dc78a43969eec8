package artifactstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePlanID(t *testing.T) {
	cases := []struct {
		id      string
		wantErr bool
	}{
		{"add-retry-logic", false},
		{"a", false},
		{"", true},
		{"Add-Retry", true},
		{"-leading-hyphen", true},
		{"has space", true},
	}
	for _, c := range cases {
		err := ValidatePlanID(c.id)
		if c.wantErr {
			assert.Error(t, err, c.id)
		} else {
			assert.NoError(t, err, c.id)
		}
	}
}

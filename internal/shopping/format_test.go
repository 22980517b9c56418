package shopping

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatList(t *testing.T) {
	entries := Aggregate(scenarioPlan())
	checked := map[string]bool{Key{"poulet", "piece"}.String(): true}

	assert.Equal(t, "[x] poulet: 2 piece\n[ ] riz: 500 g\n", FormatList(entries, checked))
	assert.Equal(t, "No ingredients.", FormatList(nil, nil))
}

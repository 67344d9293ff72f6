package view_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xeptore/sadl/slavart"
	"github.com/xeptore/sadl/view"
)

func TestTable(t *testing.T) {
	t.Parallel()

	out := view.Table([]slavart.Track{
		{Title: "One More Time", ID: 101, ISRC: "GBDUW0000053", Performer: slavart.Performer{Name: "Daft Punk", ID: 7}},
		{Title: "Aerodynamic", ID: 102, ISRC: "GBDUW0000054", Performer: slavart.Performer{Name: "Daft Punk", ID: 7}},
	})

	for _, want := range []string{"No", "Id", "Title", "isrc", "Performer", "One More Time", "101", "GBDUW0000054", "Daft Punk"} {
		assert.Contains(t, out, want)
	}
	assert.Less(t, strings.Index(out, "One More Time"), strings.Index(out, "Aerodynamic"))

	lines := strings.Split(out, "\n")
	var numbered []string
	for _, line := range lines {
		if strings.Contains(line, "One More Time") {
			numbered = append(numbered, "1")
			assert.Contains(t, line, " 1 ")
		}
		if strings.Contains(line, "Aerodynamic") {
			numbered = append(numbered, "2")
			assert.Contains(t, line, " 2 ")
		}
	}
	assert.Equal(t, []string{"1", "2"}, numbered)
}

func TestTableEmpty(t *testing.T) {
	t.Parallel()

	out := view.Table(nil)
	assert.Contains(t, out, "Performer")
}

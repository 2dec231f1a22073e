package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

// ignoreSelector compares records by text and value only.
var ignoreSelector = cmpopts.IgnoreFields(UnitRecord{}, "Selector")

const unitTable = `
<table>
  <tr><th>Unit Code</th><th>Title</th></tr>
  <tr><td>ICS 2201</td><td>Data Structures</td></tr>
  <tr><td>ICS 2202</td><td> </td></tr>
</table>`

func TestUnitsFromList(t *testing.T) {
	doc := parse(t, `
<select id="Main__ddlUnits">
  <option value="">--Select--</option>
  <option value="101">ICS 2201 - Data Structures</option>
  <option value="102">  ICS 2202 - Operating Systems </option>
  <option value="x"> </option>
</select>`+unitTable)

	units, err := ExtractUnits(doc)
	require.NoError(t, err)
	require.Equal(t, UnitsFromList, units.Strategy)
	require.Equal(t, 2, units.Total)

	want := []UnitRecord{
		{DisplayText: "ICS 2201 - Data Structures", Value: "101"},
		{DisplayText: "ICS 2202 - Operating Systems", Value: "102"},
	}
	if diff := cmp.Diff(want, units.Records, ignoreSelector); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestUnitsFromCheckboxes(t *testing.T) {
	doc := parse(t, `
<div id="myModalCourseRegister">
  <div><input type="checkbox" id="a"><label>ICS 2301 Networks</label></div>
  <div><input type="checkbox" id="b"> OK</div>
  <div><input type="checkbox" id="c"> Math</div>
  <table><tr>
    <td><input type="checkbox" id="d"></td><td>ICS 2302</td><td></td><td>Compilers</td>
  </tr></table>
</div>
<input type="checkbox" id="outside"><span>Remember me</span>`)

	units, err := ExtractUnits(doc)
	require.NoError(t, err)
	require.Equal(t, UnitsFromCheckbox, units.Strategy)

	want := []UnitRecord{
		{DisplayText: "ICS 2301 Networks"},
		{DisplayText: "Math"},
		{DisplayText: "ICS 2302 | Compilers"},
	}
	if diff := cmp.Diff(want, units.Records, ignoreSelector); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, "c", id(t, units.Records[1].Selector))
	require.Equal(t, "d", id(t, units.Records[2].Selector))
}

func TestCheckboxesOutsideModal(t *testing.T) {
	doc := parse(t, `<p><input type="checkbox"> ICS 2401 Security</p>`)

	units, err := ExtractUnits(doc)
	require.NoError(t, err)
	require.Equal(t, UnitsFromCheckbox, units.Strategy)
	require.Len(t, units.Records, 1)
	require.Equal(t, "ICS 2401 Security", units.Records[0].DisplayText)
}

func TestShortCaptionsFallThroughToTable(t *testing.T) {
	doc := parse(t, `<span><input type="checkbox"> OK</span>`+unitTable)

	units, err := ExtractUnits(doc)
	require.NoError(t, err)
	require.Equal(t, UnitsFromTable, units.Strategy)
	require.Equal(t, 2, units.Total)

	want := []UnitRecord{
		{DisplayText: "ICS 2201 | Data Structures"},
		{DisplayText: "ICS 2202"},
	}
	if diff := cmp.Diff(want, units.Records, ignoreSelector); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestTableCap(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(`<table><tr><th>Name</th></tr></table>`)
	sb.WriteString(`<table><tr><td>COURSE</td><td>Credits</td></tr>`)
	for i := 1; i <= 14; i++ {
		fmt.Fprintf(&sb, `<tr><td>UNIT %02d</td><td>3</td></tr>`, i)
	}
	sb.WriteString(`</table>`)

	units, err := ExtractUnits(parse(t, sb.String()))
	require.NoError(t, err)
	require.Equal(t, UnitsFromTable, units.Strategy)
	require.Equal(t, 14, units.Total)
	require.Len(t, units.Records, 10)
	require.Equal(t, "UNIT 01 | 3", units.Records[0].DisplayText)
	require.Equal(t, "UNIT 10 | 3", units.Records[9].DisplayText)
}

func TestNoUnits(t *testing.T) {
	doc := parse(t, `
<select id="Main__ddlUnits"><option>--Select--</option></select>
<table><tr><th>Date</th></tr><tr><td>Today</td></tr></table>`)

	units, err := ExtractUnits(doc)
	require.NoError(t, err)
	require.True(t, units.Empty())
	require.Empty(t, units.Strategy)
}

func TestUnitsIdempotent(t *testing.T) {
	doc := parse(t, `<div id="myModalCourseRegister"><label><input type="checkbox"> ICS 2501 Graphics</label></div>`+unitTable)

	first, err := ExtractUnits(doc)
	require.NoError(t, err)
	second, err := ExtractUnits(doc)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second, ignoreSelector); diff != "" {
		t.Fatalf("second run differs (-first +second):\n%s", diff)
	}
	require.Equal(t, "ICS 2501 Graphics", first.Records[0].DisplayText)
}

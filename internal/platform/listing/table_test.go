package listing

import (
	"math/rand"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	Company string
	Contact string
	Created time.Time
	Amount  float64
}

func testTable() *Table[row] {
	return NewTable(
		func(r row) string { return r.Company },
		func(r row) string { return r.Contact },
	).
		Text("company", func(r row) string { return r.Company }).
		Time("created", func(r row) time.Time { return r.Created }).
		Number("amount", func(r row) float64 { return r.Amount })
}

func sampleRows() []row {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []row{
		{Company: "beta LLC", Contact: "Ann", Created: base.Add(2 * time.Hour), Amount: 10},
		{Company: "Acme Corp", Contact: "John Doe", Created: base, Amount: 5},
		{Company: "acme corp", Contact: "Zed", Created: base.Add(time.Hour), Amount: 5},
		{Company: "Gamma", Contact: "acme fan", Created: base.Add(3 * time.Hour), Amount: 1},
	}
}

func TestFilterIsCaseInsensitiveSubset(t *testing.T) {
	tbl := testTable()
	rows := sampleRows()

	got := tbl.Filter(rows, "ACME")
	require.Len(t, got, 3)
	for _, r := range got {
		assert.True(t,
			strings.Contains(strings.ToLower(r.Company), "acme") || strings.Contains(strings.ToLower(r.Contact), "acme"))
		assert.Contains(t, rows, r)
	}

	assert.Len(t, tbl.Filter(rows, "   "), len(rows))
	assert.Empty(t, tbl.Filter(rows, "nothing matches"))
}

func TestSortStringsFoldCaseAndStayStable(t *testing.T) {
	tbl := testTable()
	got := tbl.Sort(sampleRows(), "company", Asc)
	names := make([]string, len(got))
	for i, r := range got {
		names[i] = r.Company
	}
	// "Acme Corp" and "acme corp" tie and keep their input order
	assert.Equal(t, []string{"Acme Corp", "acme corp", "beta LLC", "Gamma"}, names)

	desc := tbl.Sort(sampleRows(), "company", Desc)
	assert.Equal(t, "Gamma", desc[0].Company)
	assert.Equal(t, "Acme Corp", desc[2].Company)
	assert.Equal(t, "acme corp", desc[3].Company)
}

func TestSortTimesByInstant(t *testing.T) {
	tbl := testTable()
	rows := sampleRows()
	rows[0].Created = rows[0].Created.In(time.FixedZone("UTC+9", 9*3600))

	got := tbl.Sort(rows, "created", Asc)
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].Created.Before(got[i-1].Created))
	}
}

func TestSortIsIdempotentAndDoesNotMutateInput(t *testing.T) {
	tbl := testTable()
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 50; iter++ {
		rows := sampleRows()
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
		original := append([]row(nil), rows...)

		for _, key := range []string{"company", "created", "amount"} {
			for _, dir := range []Dir{Asc, Desc} {
				once := tbl.Sort(rows, key, dir)
				twice := tbl.Sort(once, key, dir)
				assert.Equal(t, once, twice)
			}
			asc := tbl.Sort(rows, key, Asc)
			q := Query{SortBy: key, Dir: Asc}
			back := tbl.Sort(rows, key, q.Toggle(key).Toggle(key).Dir)
			assert.Equal(t, asc, back)
		}
		assert.Equal(t, original, rows)
	}
}

func TestSortUnknownKeyKeepsOrder(t *testing.T) {
	tbl := testTable()
	rows := sampleRows()
	assert.Equal(t, rows, tbl.Sort(rows, "bogus", Desc))
	assert.False(t, tbl.Sortable("bogus"))
	assert.True(t, tbl.Sortable("amount"))
}

func TestToggle(t *testing.T) {
	q := Query{Search: "acme"}
	q = q.Toggle("company")
	assert.Equal(t, Query{Search: "acme", SortBy: "company", Dir: Asc}, q)
	q = q.Toggle("company")
	assert.Equal(t, Desc, q.Dir)
	q = q.Toggle("created")
	assert.Equal(t, Query{Search: "acme", SortBy: "created", Dir: Asc}, q)
}

func TestParseQueryAndURLs(t *testing.T) {
	q := ParseQuery(url.Values{"q": {" acme "}, "sort": {"company"}, "dir": {"DESC"}})
	assert.Equal(t, Query{Search: "acme", SortBy: "company", Dir: Desc}, q)
	assert.Equal(t, "↓", q.Arrow("company"))
	assert.Empty(t, q.Arrow("created"))
	assert.Equal(t, "/customers?dir=asc&q=acme&sort=company", q.SortURL("/customers", "company"))
	assert.Equal(t, "/customers?dir=asc&q=acme&sort=created", q.SortURL("/customers", "created"))

	q = ParseQuery(url.Values{"dir": {"sideways"}})
	assert.Equal(t, Asc, q.Dir)
	assert.Empty(t, q.Values().Encode())
}

func TestApply(t *testing.T) {
	tbl := testTable()
	got := tbl.Apply(sampleRows(), Query{Search: "acme", SortBy: "amount", Dir: Desc})
	require.Len(t, got, 3)
	assert.Equal(t, 5.0, got[0].Amount)
	assert.Equal(t, "Acme Corp", got[0].Company)
	assert.Equal(t, 1.0, got[2].Amount)
}

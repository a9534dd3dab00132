package records

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dgallion1/pale/internal/doctree"
	"github.com/dgallion1/pale/internal/outline"
)

func sampleOutline() *outline.Outline {
	b := doctree.NewBuilder("Jhin/LoL/Audio")
	b.Add(doctree.KindHeading|doctree.KindTopHeading, "span", "Champion Select", "")
	b.Add(doctree.KindHeading, "span", "Pick", "")
	b.Add(doctree.KindContent, "audio", `Link▶️ "The curtain   rises."`, "https://wiki.test/images/Jhin_Select.ogg/revision/latest")
	b.Add(doctree.KindContent, "audio", "Placeholder without a file", "")
	b.Add(doctree.KindHeading|doctree.KindTopHeading, "span", "Attacking", "")
	b.Add(doctree.KindContent, "audio", "Link▶️ Four!", "https://wiki.test/images/Jhin_Attack.ogg")
	return outline.Build(b.Document())
}

func sampleRecords() []Record {
	return []Record{
		{Header: "Champion Select", Subheader: "Pick", Text: `"The curtain rises."`, Source: "https://wiki.test/a.ogg", Champion: "jhin"},
		{Header: "Attacking", Text: "Four!\tFive?", Source: "https://wiki.test/b.ogg", Champion: "jhin"},
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  plain   text ", "plain text"},
		{"Link▶️ \"Hello\"", `"Hello"`},
		{"before Link▶️after", "before after"},
		{"\n\tLink▶️\n", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "input %q", tt.in)
	}
}

func TestFromOutline(t *testing.T) {
	got := FromOutline(sampleOutline(), "jhin")

	require.Len(t, got, 2)
	assert.Equal(t, Record{
		Header:    "Champion Select",
		Subheader: "Pick",
		Text:      `"The curtain rises."`,
		Source:    "https://wiki.test/images/Jhin_Select.ogg/revision/latest",
		Champion:  "jhin",
	}, got[0])
	assert.Equal(t, Record{
		Header:   "Attacking",
		Text:     "Four!",
		Source:   "https://wiki.test/images/Jhin_Attack.ogg",
		Champion: "jhin",
	}, got[1])
}

func TestFromOutline_Empty(t *testing.T) {
	o := outline.Build(doctree.NewBuilder("empty").Document())
	assert.Empty(t, FromOutline(o, "jhin"))
}

func TestValid(t *testing.T) {
	good := sampleRecords()[0]
	assert.True(t, Valid(good))

	noText := good
	noText.Text = "  "
	assert.False(t, Valid(noText))

	noChampion := good
	noChampion.Champion = ""
	assert.False(t, Valid(noChampion))

	relative := good
	relative.Source = "/images/a.ogg"
	assert.False(t, Valid(relative))

	ftp := good
	ftp.Source = "ftp://wiki.test/a.ogg"
	assert.False(t, Valid(ftp))

	kept, dropped := Filter([]Record{good, noText, relative})
	assert.Equal(t, []Record{good}, kept)
	assert.Equal(t, 2, dropped)
}

func TestTSV_WriteRead(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAll(&buf, sampleRecords()))

	firstLine, _, _ := strings.Cut(buf.String(), "\n")
	assert.Equal(t, "header\tsubheader\ttext\tsource\tchampion", firstLine)

	got, err := ReadAll(&buf)
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), got)
}

func TestReadAll_ColumnsByName(t *testing.T) {
	in := "champion\ttext\theader\tsource\textra\n" +
		"kindred\tHello\tMovement\thttps://wiki.test/c.ogg\tx\n"
	got, err := ReadAll(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []Record{{
		Header:   "Movement",
		Text:     "Hello",
		Source:   "https://wiki.test/c.ogg",
		Champion: "kindred",
	}}, got)
}

func TestReadAll_Errors(t *testing.T) {
	got, err := ReadAll(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = ReadAll(strings.NewReader("header\ttext\n"))
	assert.ErrorContains(t, err, "missing column")
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pale.xlsx")
	require.NoError(t, WriteXLSX(path, sampleRecords()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, "Pick", rows[1][1])
	assert.Equal(t, "", rows[2][1])
	assert.Equal(t, "jhin", rows[2][4])
}

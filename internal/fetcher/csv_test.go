package fetcher

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectRows(t *testing.T, rowCh <-chan []string, errCh <-chan error) [][]string {
	t.Helper()
	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	require.NoError(t, <-errCh)
	return rows
}

func TestStreamCSVBasic(t *testing.T) {
	input := "a,b,c\n1,2,3\n4,5,6\n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	rows := collectRows(t, rowCh, errCh)
	assert.Equal(t, [][]string{{"a", "b", "c"}, {"1", "2", "3"}, {"4", "5", "6"}}, rows)
}

func TestStreamCSVHeader(t *testing.T) {
	headerCh := make(chan []string, 1)
	input := "name,company\nFourmile,Barrick\n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
	})
	rows := collectRows(t, rowCh, errCh)
	assert.Equal(t, [][]string{{"Fourmile", "Barrick"}}, rows)
	assert.Equal(t, []string{"name", "company"}, <-headerCh)
}

func TestStreamCSVTrimSpace(t *testing.T) {
	input := " a , b \n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{TrimSpace: true})
	rows := collectRows(t, rowCh, errCh)
	assert.Equal(t, [][]string{{"a", "b"}}, rows)
}

func TestStreamCSVVariableFields(t *testing.T) {
	input := "a,b\nc\nd,e,f\n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	rows := collectRows(t, rowCh, errCh)
	assert.Len(t, rows, 3)
}

func TestStreamCSVContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rowCh, errCh := StreamCSV(ctx, strings.NewReader("a,b\n"), CSVOptions{})
	for range rowCh {
	}
	assert.Error(t, <-errCh)
}

func TestReadProjectCSV(t *testing.T) {
	input := `Project Name,Company,Ticker,Country,Document URL
Fourmile,Barrick Gold,GOLD,USA,https://a.example/r1.pdf;https://a.example/r2.pdf
Oyu Tolgoi,Rio Tinto,RIO,Mongolia,https://b.example/ot.pdf
,No Name Co,,,
`
	rows, err := ReadProjectCSV(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2, "rows without a project name are dropped")

	assert.Equal(t, "Fourmile", rows[0].Name)
	assert.Equal(t, "Barrick Gold", rows[0].Company)
	assert.Equal(t, "GOLD", rows[0].Ticker)
	assert.Equal(t, "USA", rows[0].Country)
	assert.Equal(t, []string{"https://a.example/r1.pdf", "https://a.example/r2.pdf"}, rows[0].URLs)

	assert.Equal(t, "Oyu Tolgoi", rows[1].Name)
	assert.Equal(t, []string{"https://b.example/ot.pdf"}, rows[1].URLs)
}

func TestReadProjectCSVAlternateHeaders(t *testing.T) {
	input := "name,issuer,url\nKamoa-Kakula,Ivanhoe Mines,https://c.example/kk.pdf\n"
	rows, err := ReadProjectCSV(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ivanhoe Mines", rows[0].Company)
}

func TestReadProjectCSVMissingNameColumn(t *testing.T) {
	input := "company,url\nBarrick,https://a.example/r.pdf\n"
	_, err := ReadProjectCSV(context.Background(), strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no project name column")
}

func TestReadProjectCSVEmptyFile(t *testing.T) {
	_, err := ReadProjectCSV(context.Background(), strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no header row")
}

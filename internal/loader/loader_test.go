package loader

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeWorkbook(t *testing.T, sheets map[string][][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestLoadExcelBytes_PreferredSheet(t *testing.T) {
	data := writeWorkbook(t, map[string][][]string{
		"Results": {
			{"Site", "Parameter", "Result", "Date"},
			{"BH-1", "Iron", "0.3", "12/01/2024"},
		},
	})

	table, err := LoadExcelBytes(data, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Site", "Parameter", "Result", "Date"}, table.Header)
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, "Iron", table.Cell(0, 1))
}

func TestLoadExcelBytes_HeaderScanFallback(t *testing.T) {
	data := writeWorkbook(t, map[string][][]string{
		"Export 2024": {
			{"Site", "Parameter", "Result", "Date"},
			{"BH-1", "pH", "7.2", "12/01/2024"},
		},
	})

	table, err := LoadExcelBytes(data, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, "pH", table.Cell(0, 1))
}

func TestLoadExcelBytes_TitleRowSkipped(t *testing.T) {
	data := writeWorkbook(t, map[string][][]string{
		"Results": {
			{"", "", ""},
			{"Site", "Parameter", "Result"},
			{"BH-1", "Iron", "0.3"},
		},
	})

	table, err := LoadExcelBytes(data, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Site", "Parameter", "Result"}, table.Header)
	assert.Equal(t, 1, table.Len())
}

func TestLoadExcelBytes_NoReadableSheet(t *testing.T) {
	data := writeWorkbook(t, map[string][][]string{
		"Notes": {
			{"free text"},
		},
	})

	_, err := LoadExcelBytes(data, nil)
	assert.ErrorContains(t, err, "no readable sheet")
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	content := "Site,Parameter,Result,Date\nBH-1,Iron,0.3,12/01/2024\nBH-1,Iron,\"<0.1\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	table, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Site", "Parameter", "Result", "Date"}, table.Header)
	assert.Equal(t, 2, table.Len())
	// Ragged second row reads as empty in the missing column.
	assert.Equal(t, "<0.1", table.Cell(1, 2))
	assert.Equal(t, "", table.Cell(1, 3))
}

func TestLoadCSVBytes_StripsBOM(t *testing.T) {
	table, err := LoadCSVBytes([]byte("\xef\xbb\xbfSite,Parameter\nBH-1,Iron\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Site", "Parameter"}, table.Header)
}

func TestFetcher_Load_URLPrecedence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Site,Parameter,Result\nBH-1,Iron,0.3\n"))
	}))
	defer srv.Close()

	fetcher := NewFetcher(5*time.Second, testLogger())
	table, err := fetcher.Load(context.Background(), Source{
		URL:  srv.URL + "/export/results.csv?rev=2",
		File: filepath.Join(t.TempDir(), "does-not-exist.csv"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
}

func TestFetcher_Fetch_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	fetcher := NewFetcher(5*time.Second, testLogger())
	_, err := fetcher.Fetch(context.Background(), srv.URL)
	assert.ErrorContains(t, err, "unexpected status 403")
}

func TestFetcher_Load_NoSource(t *testing.T) {
	fetcher := NewFetcher(time.Second, testLogger())
	_, err := fetcher.Load(context.Background(), Source{}, nil)
	assert.Error(t, err)
}

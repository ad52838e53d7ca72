package ingest

import (
	"strings"
	"testing"

	"github.com/rmenezes/aguaviva/internal/models"
)

const sampleHeader = "id,ano,mes,bairro,parametro,resultado,resultado_numerico,ponto_de_coleta,data_da_coleta,unidade_de_medida,latitude,longitude\n"

func parse(t *testing.T, csv string) *ParseResult {
	t.Helper()
	result, err := ParseCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	return result
}

func TestParseCSV_Basic(t *testing.T) {
	csv := sampleHeader +
		"1,2023,3,LIBERDADE,Escherichia coli,AUSENTE,,CHAFARIZ A,2023-03-15,,-12.95,-38.48\n" +
		"2,2023,3,LIBERDADE,Turbidez (uT),\"1,2\",\"1,2\",CHAFARIZ A,2023-03-15,uT,-12.95,-38.48\n"

	result := parse(t, csv)
	if len(result.Records) != 2 {
		t.Fatalf("len(Records) = %d, want 2", len(result.Records))
	}

	ecoli := result.Records[0]
	if ecoli.Parameter != models.ParamEColi {
		t.Errorf("Parameter = %q, want %q", ecoli.Parameter, models.ParamEColi)
	}
	if ecoli.Year != 2023 || ecoli.Month != 3 {
		t.Errorf("year/month = %d/%d, want 2023/3", ecoli.Year, ecoli.Month)
	}
	if ecoli.Neighborhood != "LIBERDADE" {
		t.Errorf("Neighborhood = %q", ecoli.Neighborhood)
	}
	if !ecoli.Compliant {
		t.Error("AUSENTE E. coli reading should be compliant")
	}
	if !ecoli.Presence.Valid || ecoli.Presence.Bool {
		t.Errorf("Presence = %+v, want valid false", ecoli.Presence)
	}
	if !ecoli.Latitude.Valid || ecoli.Latitude.Float64 != -12.95 {
		t.Errorf("Latitude = %+v", ecoli.Latitude)
	}

	turb := result.Records[1]
	if !turb.NumericValue.Valid || turb.NumericValue.Float64 != 1.2 {
		t.Errorf("NumericValue = %+v, want 1.2", turb.NumericValue)
	}
	if !turb.Compliant {
		t.Error("turbidity 1.2 should be compliant")
	}
	if turb.Unit != "uT" {
		t.Errorf("Unit = %q, want uT", turb.Unit)
	}

	// Same point, same visit: one collection.
	if ecoli.CollectionID != turb.CollectionID {
		t.Errorf("collection ids differ: %q vs %q", ecoli.CollectionID, turb.CollectionID)
	}
	if ecoli.CollectionID != "CHAFARIZ A|2023-03-15" {
		t.Errorf("CollectionID = %q", ecoli.CollectionID)
	}
}

func TestParseCSV_SkipsAndFallbacks(t *testing.T) {
	csv := sampleHeader +
		// no parameter: skipped
		"1,2023,3,CENTRO,,AUSENTE,,P1,2023-03-15,,,\n" +
		// no year/month and no usable date: skipped
		"2,,,CENTRO,Escherichia coli,AUSENTE,,P1,,,,\n" +
		// year/month recovered from the collection date
		"3,,,CENTRO,Escherichia coli,AUSENTE,,P1,2022-11-02,,,\n" +
		// float-formatted year, Brazilian date, empty neighborhood
		"4,2023.0,4.0,,Coliformes totais,PRESENTE,,P2,15/04/2023,,,\n"

	result := parse(t, csv)
	if len(result.Records) != 2 {
		t.Fatalf("len(Records) = %d, want 2", len(result.Records))
	}
	if result.Skipped[SkipNoParameter] != 1 {
		t.Errorf("Skipped[no_parameter] = %d, want 1", result.Skipped[SkipNoParameter])
	}
	if result.Skipped[SkipNoDate] != 1 {
		t.Errorf("Skipped[no_date] = %d, want 1", result.Skipped[SkipNoDate])
	}

	fromDate := result.Records[0]
	if fromDate.Year != 2022 || fromDate.Month != 11 {
		t.Errorf("year/month from date = %d/%d, want 2022/11", fromDate.Year, fromDate.Month)
	}

	brazilian := result.Records[1]
	if brazilian.Year != 2023 || brazilian.Month != 4 {
		t.Errorf("year/month = %d/%d, want 2023/4", brazilian.Year, brazilian.Month)
	}
	if brazilian.CollectedAt != "2023-04-15" {
		t.Errorf("CollectedAt = %q, want 2023-04-15", brazilian.CollectedAt)
	}
	if brazilian.Neighborhood != models.UnknownNeighborhood {
		t.Errorf("Neighborhood = %q, want %q", brazilian.Neighborhood, models.UnknownNeighborhood)
	}
	if brazilian.Compliant {
		t.Error("PRESENTE coliform reading should be non-compliant")
	}
	if !brazilian.Presence.Valid || !brazilian.Presence.Bool {
		t.Errorf("Presence = %+v, want valid true", brazilian.Presence)
	}
}

func TestParseCSV_ColumnOrderIndependent(t *testing.T) {
	csv := "parametro,bairro,ano,mes,resultado\n" +
		"Escherichia coli,BROTAS,2024,1,AUSENTE\n"

	result := parse(t, csv)
	if len(result.Records) != 1 {
		t.Fatalf("len(Records) = %d, want 1", len(result.Records))
	}
	r := result.Records[0]
	if r.Neighborhood != "BROTAS" || r.Year != 2024 || r.Month != 1 {
		t.Errorf("record = %+v", r)
	}
}

func TestNormalizeDate(t *testing.T) {
	cases := []struct{ in, want string }{
		{"2023-03-15", "2023-03-15"},
		{"2023-03-15T10:00:00", "2023-03-15"},
		{"15/03/2023", "2023-03-15"},
		{"", ""},
		{"garbage", "garbage"},
	}
	for _, tc := range cases {
		if got := normalizeDate(tc.in); got != tc.want {
			t.Errorf("normalizeDate(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseInt(t *testing.T) {
	if v, ok := parseInt("2023.0"); !ok || v != 2023 {
		t.Errorf("parseInt(2023.0) = (%d, %v)", v, ok)
	}
	if _, ok := parseInt("0"); ok {
		t.Error("parseInt(0) should not be usable as a year or month")
	}
	if _, ok := parseInt(""); ok {
		t.Error("parseInt empty should fail")
	}
}

package csvimport

import (
	"errors"
	"strings"
	"testing"
)

const statement = `mBank S.A. Bankowość Detaliczna;
#Za okres:;
01.03.2024;31.03.2024;

#Data operacji;#Opis operacji;#Rachunek;#Kategoria;#Kwota;
2024-03-01;"BIEDRONKA   KRAKOW  ";eKonto 1234;Żywność i chemia domowa;-45,20 PLN;
2024-03-02;PRZELEW WŁASNY;eKonto 1234;Przelew własny;1 200,00 PLN;
2024-03-03;ZA KRÓTKI;
;;;;;
2024-03-04;"CAFE ""NERO""";eKonto 1234;Kawiarnie;-12,34 PLN;
`

func TestRead(t *testing.T) {
	records, malformed, err := Read(strings.NewReader(statement))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if malformed != 1 {
		t.Errorf("Read() malformed = %d, want 1", malformed)
	}
	if len(records) != 3 {
		t.Fatalf("Read() returned %d records, want 3", len(records))
	}

	first := records[0]
	if first.OperationDate != "2024-03-01" {
		t.Errorf("OperationDate = %q, want 2024-03-01", first.OperationDate)
	}
	if first.Description != "BIEDRONKA KRAKOW" {
		t.Errorf("Description = %q, want spaces collapsed", first.Description)
	}
	if first.Amount != "-45,20 PLN" {
		t.Errorf("Amount = %q, want raw amount", first.Amount)
	}
	if first.AccountName != "eKonto 1234" || first.CategoryHint != "Żywność i chemia domowa" {
		t.Errorf("record = %+v, want account and category hint", first)
	}

	if records[2].Description != `CAFE "NERO"` {
		t.Errorf("Description = %q, want quoted field unescaped", records[2].Description)
	}
}

func TestReadColumnOrder(t *testing.T) {
	in := "#Kwota;#Kategoria;#Rachunek;#Opis operacji;#Data operacji\n-1,00 PLN;Inne;konto;OPIS;2024-01-31\n"

	records, _, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(records) != 1 || records[0].OperationDate != "2024-01-31" || records[0].Amount != "-1,00 PLN" {
		t.Errorf("Read() = %+v, want columns mapped by name", records)
	}
}

func TestReadWithoutHeader(t *testing.T) {
	_, _, err := Read(strings.NewReader("date;description;amount\n2024-01-01;x;1\n"))
	if !errors.Is(err, ErrNoHeader) {
		t.Errorf("Read() error = %v, want %v", err, ErrNoHeader)
	}
}

func TestReadByteOrderMark(t *testing.T) {
	in := "\ufeff#Data operacji;#Opis operacji;#Rachunek;#Kategoria;#Kwota\n2024-01-01;x;a;b;-1 PLN\n"

	records, _, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Read() returned %d records, want 1", len(records))
	}
}

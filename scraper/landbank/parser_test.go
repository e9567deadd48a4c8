package landbank

import (
	"strings"
	"testing"

	"golang.org/x/text/encoding/traditionalchinese"
)

const listingPageFixture = `
<html><body>
<table border="1">
<tr><td>標售案號</td><td>不動產座落</td><td>開標日期</td><td>拍次</td><td>底價</td><td>面積</td><td>備註</td></tr>
<tr><td>113-A-001</td><td>台北市士林區中正路200號3樓</td><td>115/03/20</td><td>2</td><td>1,580</td><td>42.8</td><td>點交</td></tr>
<tr><td>113-A-002</td><td>桃園市中壢區環北路77號</td><td>115/03/27</td><td>1</td><td>690</td><td>28.1</td><td>不點交</td></tr>
</table>
</body></html>`

func TestParseListingTable(t *testing.T) {
	rows, err := ParseListingTable(listingPageFixture)
	if err != nil {
		t.Fatalf("ParseListingTable returned error: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("parsed %d rows; want 2 (header row skipped by label)", len(rows))
	}
	if rows[0][0] != "113-A-001" {
		t.Errorf("rows[0][0] = %q; want 113-A-001", rows[0][0])
	}
	if rows[1][6] != "不點交" {
		t.Errorf("rows[1][6] = %q; want 不點交", rows[1][6])
	}
}

// The provider serves Big5; decoding must round-trip multi-byte text intact.
func TestDecodeBig5RoundTrip(t *testing.T) {
	original := "台北市士林區 點交"
	encoded, err := traditionalchinese.Big5.NewEncoder().String(original)
	if err != nil {
		t.Fatalf("fixture encode failed: %v", err)
	}

	decoded, err := decodeBig5([]byte(encoded))
	if err != nil {
		t.Fatalf("decodeBig5 returned error: %v", err)
	}
	if decoded != original {
		t.Errorf("decodeBig5 round trip = %q; want %q", decoded, original)
	}
}

func TestDecodeBig5FullPage(t *testing.T) {
	encoded, err := traditionalchinese.Big5.NewEncoder().String(listingPageFixture)
	if err != nil {
		t.Fatalf("fixture encode failed: %v", err)
	}

	page, err := decodeBig5([]byte(encoded))
	if err != nil {
		t.Fatalf("decodeBig5 returned error: %v", err)
	}
	if !strings.Contains(page, "不動產座落") {
		t.Error("decoded page lost multi-byte header text")
	}

	rows, err := ParseListingTable(page)
	if err != nil {
		t.Fatalf("ParseListingTable returned error: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("parsed %d rows from decoded page; want 2", len(rows))
	}
}

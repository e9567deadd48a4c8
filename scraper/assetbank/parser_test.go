package assetbank

import "testing"

const searchPageFixture = `
<html><body>
<form method="post" action="./search.aspx">
<input type="hidden" name="__VIEWSTATE" value="dDwtMTIzNDU2Nzg5O3Q8" />
<input type="hidden" name="__VIEWSTATEGENERATOR" value="CA0B0334" />
<input type="hidden" name="__EVENTVALIDATION" value="/wEWAgL+9" />
<input type="text" name="ctl00$MainContent$txtKeyword" value="" />
</form>
</body></html>`

const resultPageFixture = `
<html><body>
<table>
<tr><th>案號</th><th>標的座落</th><th>拍賣日</th><th>底價</th><th>面積</th><th>點交</th></tr>
<tr><td colspan="3">共 2 筆</td></tr>
<tr><td>112金職字第88號</td><td>台北市中山區民權東路100號</td><td>115/03/10</td><td>1,200</td><td>85.5</td><td>點交</td></tr>
<tr><td>113金職字第12號</td><td>新北市板橋區文化路55號</td><td>115/04/02</td><td>860</td><td>99.2</td><td>不點交</td></tr>
</table>
</body></html>`

func TestExtractHiddenInputs(t *testing.T) {
	tokens := ExtractHiddenInputs(searchPageFixture)

	want := map[string]string{
		"__VIEWSTATE":          "dDwtMTIzNDU2Nzg5O3Q8",
		"__VIEWSTATEGENERATOR": "CA0B0334",
		"__EVENTVALIDATION":    "/wEWAgL+9",
	}
	for name, value := range want {
		if tokens[name] != value {
			t.Errorf("token %s = %q; want %q", name, tokens[name], value)
		}
	}
	if _, ok := tokens["ctl00$MainContent$txtKeyword"]; ok {
		t.Error("non-hidden input should not be collected")
	}
}

func TestParseResultTable(t *testing.T) {
	rows, err := ParseResultTable(resultPageFixture)
	if err != nil {
		t.Fatalf("ParseResultTable returned error: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("parsed %d rows; want 2 (header and colspan rows skipped)", len(rows))
	}
	if rows[0][0] != "112金職字第88號" {
		t.Errorf("rows[0][0] = %q; want case number", rows[0][0])
	}
	if rows[1][5] != "不點交" {
		t.Errorf("rows[1][5] = %q; want 不點交", rows[1][5])
	}
}

func TestParseResultTableEmptyPage(t *testing.T) {
	rows, err := ParseResultTable("<html><body><p>查無資料</p></body></html>")
	if err != nil {
		t.Fatalf("ParseResultTable returned error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("parsed %d rows from empty page; want 0", len(rows))
	}
}

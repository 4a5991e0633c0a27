package reconciliation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// record builds a fixed-width line with fields placed at zero-based offsets
func record(width int, fields map[int]string) string {
	b := []byte(strings.Repeat(" ", width))
	for pos, v := range fields {
		copy(b[pos:], v)
	}
	return string(b)
}

const sampleOFX = `OFXHEADER:100
<OFX><BANKMSGSRSV1><STMTTRNRS><STMTRS><BANKTRANLIST>
<STMTTRN><TRNTYPE>CREDIT<DTPOSTED>20260310120000<TRNAMT>1500.00<MEMO>PIX RECEBIDO ACME</STMTTRN>
<STMTTRN><TRNTYPE>DEBIT<DTPOSTED>20260311<TRNAMT>-230,50<MEMO>PAGTO FORNECEDOR</STMTTRN>
</BANKTRANLIST></STMTRS></STMTTRNRS></BANKMSGSRSV1></OFX>`

func TestDetectFormat(t *testing.T) {
	line240 := record(240, map[int]string{0: "341"})
	line400 := record(400, map[int]string{0: "0"})

	tests := []struct {
		name     string
		filename string
		content  string
		want     Format
		wantErr  bool
	}{
		{"ofx extension", "extrato.OFX", "anything", FormatOFX, false},
		{"ofx content", "extrato.txt", sampleOFX, FormatOFX, false},
		{"cnab240 width", "retorno.txt", line240 + "\n" + line240, FormatCNAB240, false},
		{"cnab400 width", "retorno.txt", line400 + "\r\n", FormatCNAB400, false},
		{"ret extension short line", "retorno.ret", "0123", FormatCNAB240, false},
		{"rem extension long line", "remessa.rem", strings.Repeat("1", 300), FormatCNAB400, false},
		{"unknown", "notes.csv", "a,b,c", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.filename, []byte(tt.content))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseOFX(t *testing.T) {
	fallback := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	entries, err := Parse(FormatOFX, []byte(sampleOFX), fallback)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "1500.00", entries[0].Amount.StringFixed(2))
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), entries[0].Date)
	assert.Equal(t, "PIX RECEBIDO ACME", entries[0].Description)

	assert.Equal(t, "-230.50", entries[1].Amount.StringFixed(2))
	assert.Equal(t, "PAGTO FORNECEDOR", entries[1].Description)
}

func TestParseCNAB240(t *testing.T) {
	header := record(240, map[int]string{7: "0"})
	segT := record(240, map[int]string{
		7:   "3",
		13:  "T",
		58:  "DOC123",
		73:  "15032026",
		81:  "000000000150000",
		105: "CLIENTE ACME",
	})
	segU := record(240, map[int]string{
		7:   "3",
		13:  "U",
		77:  "000000000149990",
		137: "16032026",
		145: "17032026",
	})
	content := strings.Join([]string{header, segT, segU}, "\r\n")

	entries, err := Parse(FormatCNAB240, []byte(content), time.Now())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1499.90", entries[0].Amount.StringFixed(2))
	assert.Equal(t, time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC), entries[0].Date)
	assert.Equal(t, "CLIENTE ACME Doc:DOC123", entries[0].Description)
}

func TestParseCNAB240_FallsBackToTitleAmountAndDueDate(t *testing.T) {
	segT := record(240, map[int]string{7: "3", 13: "T", 58: "D1", 73: "01042026", 81: "000000000010000", 105: "X"})
	segU := record(240, map[int]string{7: "3", 13: "U", 77: "000000000000000"})

	entries, err := Parse(FormatCNAB240, []byte(segT+"\n"+segU), time.Now())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "100.00", entries[0].Amount.StringFixed(2))
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), entries[0].Date)
}

func TestParseCNAB400(t *testing.T) {
	header := record(400, map[int]string{0: "0"})
	detail := record(400, map[int]string{
		0:   "1",
		31:  "ACME LTDA",
		110: "100326",
		116: "NF000042",
		152: "0000000050000",
		253: "0000000049500",
		295: "120326",
	})
	entries, err := Parse(FormatCNAB400, []byte(header+"\n"+detail+"\n"), time.Now())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "495.00", entries[0].Amount.StringFixed(2))
	assert.Equal(t, time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC), entries[0].Date)
	assert.Equal(t, "ACME LTDA Doc:NF000042", entries[0].Description)
}

func TestCNABShortDateCentury(t *testing.T) {
	d := cnabShortDate("311299")
	require.NotNil(t, d)
	assert.Equal(t, 1999, d.Year())
	assert.Nil(t, cnabShortDate("000000"))
}

package fields

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMargin(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  float64
	}{
		{name: "disponivel with currency and comma", input: "margem disponível: R$ 1234,56", want: 1234.56},
		{name: "plain with dot", input: "Margem: 500.00", want: 500.00},
		{name: "liquida upper case", input: "MARGEM LÍQUIDA: 10,00", want: 10.00},
		{name: "unaccented disponivel", input: "Margem disponivel R$ 77,10", want: 77.10},
		{name: "keyword absent", input: "Salário base R$ 3000,00", want: 0},
		{name: "empty", input: "", want: 0},
		{name: "first match wins", input: "Margem: 10,00\nMargem: 900,00", want: 10.00},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Parse(tc.input)
			assert.InDelta(t, tc.want, got.Margin, 1e-9)
		})
	}
}

func TestParseContracts(t *testing.T) {
	text := "Contrato 123456 - parcela R$ 250,00\n" +
		"nada aqui\n" +
		"778899 R$ 120,00\n" +
		"Contrato 123456 - parcela R$ 250,00\n"

	got := Parse(text)
	require.Len(t, got.Contracts, 3)
	assert.Equal(t, Contract{Number: "123456", Installment: 250.00}, got.Contracts[0])
	assert.Equal(t, Contract{Number: "778899", Installment: 120.00}, got.Contracts[1])
	// duplicates are kept
	assert.Equal(t, got.Contracts[0], got.Contracts[2])
}

func TestParseContractsRequireSameLine(t *testing.T) {
	got := Parse("Contrato 123456\nparcela R$ 250,00")
	assert.Empty(t, got.Contracts)
}

func TestParseContractsSeparatorBudget(t *testing.T) {
	got := Parse("Contrato 123456 - parcela bem grande demais R$ 250,00")
	assert.Empty(t, got.Contracts)

	got = Parse("12345 R$ 10,00")
	assert.Empty(t, got.Contracts, "contract numbers need at least 6 digits")
}

func TestParseContractsOnePairPerLine(t *testing.T) {
	got := Parse("111111 R$ 1,00 222222 R$ 2,00")
	require.Len(t, got.Contracts, 1)
	assert.Equal(t, "111111", got.Contracts[0].Number)
}

func TestParseNeverFails(t *testing.T) {
	got := Parse("\n\n\x00garbage ### \n")
	assert.Zero(t, got.Margin)
	assert.Empty(t, got.Contracts)
	assert.Zero(t, got.Skipped)
}

func TestParseSkipsUnparseableMargin(t *testing.T) {
	huge := strings.Repeat("9", 400)
	got := Parse("Margem disponível: R$ " + huge + ",00")
	assert.Zero(t, got.Margin)
	assert.Equal(t, 1, got.Skipped)
	// the digits still read as a contract whose number absorbs all but the last nine
	require.Len(t, got.Contracts, 1)
	assert.InDelta(t, 9.0, got.Contracts[0].Installment, 1e-9)
}

func TestParseSkipsUnparseableInstallment(t *testing.T) {
	huge := strings.Repeat("9", 400)
	got := Parse("Contrato 123456 R$ " + huge + ",00\n654321 R$ 12,34")
	assert.Equal(t, 1, got.Skipped)
	require.Len(t, got.Contracts, 1)
	assert.Equal(t, "654321", got.Contracts[0].Number)
}

func TestParseLineBoundaries(t *testing.T) {
	for _, sep := range []string{"\r", "\r\n", "\v", "\f", "\x1c", "\u0085", "\u2028", "\u2029"} {
		got := Parse("Contrato 123456" + sep + "parcela R$ 250,00")
		assert.Empty(t, got.Contracts, "separator %q", sep)
	}

	got := Parse("111111 R$ 1,00\r222222 R$ 2,00")
	require.Len(t, got.Contracts, 2)
	assert.Equal(t, "222222", got.Contracts[1].Number)
}

func TestParseUnicodeWhitespace(t *testing.T) {
	got := Parse("Margem disponível:\u00a0R$\u00a010,00")
	assert.InDelta(t, 10.0, got.Margin, 1e-9)

	got = Parse("Contrato 123456\u00a0R$\u2003250,00")
	require.Len(t, got.Contracts, 1)
	assert.InDelta(t, 250.0, got.Contracts[0].Installment, 1e-9)
}

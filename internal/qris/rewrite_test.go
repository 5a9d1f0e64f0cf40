package qris

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewrite(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		amount string
		mode   Mode
		want   string
	}{
		{name: "legacy fixed width", raw: legacyPayload, amount: "50000", mode: ModeLegacy, want: legacy50000},
		{name: "strict grows field", raw: strictPayload, amount: "150000", mode: ModeStrict, want: strict150000},
		{name: "static inserts amount", raw: staticPayload, amount: "50000", mode: ModeStatic, want: static50000},
		{name: "static with cents", raw: staticPayload, amount: "12500.50", mode: ModeStatic, want: static12500},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Rewrite(tc.raw, decimal.RequireFromString(tc.amount), tc.mode)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.NoError(t, Verify(got))
		})
	}
}

func TestRewriteLegacyKeepsLength(t *testing.T) {
	got, err := Rewrite(legacyPayload, decimal.NewFromInt(50000), ModeLegacy)
	require.NoError(t, err)
	assert.Len(t, got, len(legacyPayload))
	assert.Contains(t, got, "54130000000050000")
}

func TestRewriteStrictShiftsOffsets(t *testing.T) {
	got, err := Rewrite(strictPayload, decimal.NewFromInt(150000), ModeStrict)
	require.NoError(t, err)

	loc, err := FindField(got, TagAmount)
	require.NoError(t, err)
	assert.Equal(t, 6, loc.Length)
	assert.Equal(t, "150000", got[loc.ValueStart:loc.End()])

	for _, tag := range []string{TagCountry, TagMerchantName, TagMerchantCity, TagCRC} {
		before, err := FindField(strictPayload, tag)
		require.NoError(t, err)
		after, err := FindField(got, tag)
		require.NoError(t, err)
		assert.Equal(t, before.Start+4, after.Start, "tag %s", tag)
	}
}

func TestRewriteStaticSetsDynamicInitiation(t *testing.T) {
	got, err := Rewrite(staticPayload, decimal.NewFromInt(50000), ModeStatic)
	require.NoError(t, err)
	p, err := Parse(got)
	require.NoError(t, err)
	initiation, _ := p.Get(TagInitiation)
	assert.Equal(t, "12", initiation)
	assert.Equal(t, p.Index(TagCountry)-1, p.Index(TagAmount))
}

func TestRewriteIsDeterministic(t *testing.T) {
	amount := decimal.NewFromInt(77000)
	first, err := Rewrite(staticPayload, amount, ModeStatic)
	require.NoError(t, err)
	second, err := Rewrite(staticPayload, amount, ModeStatic)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRewriteChecksumCoversPrefix(t *testing.T) {
	for _, amount := range []int64{1, 999, 50000, 1234567} {
		for _, tc := range []struct {
			raw  string
			mode Mode
		}{
			{legacyPayload, ModeLegacy},
			{strictPayload, ModeStrict},
			{staticPayload, ModeStatic},
		} {
			got, err := Rewrite(tc.raw, decimal.NewFromInt(amount), tc.mode)
			require.NoError(t, err)
			split := len(got) - 4
			assert.Equal(t, Checksum(got[:split]), got[split:], "%s %d", tc.mode, amount)
		}
	}
}

func TestRewriteErrors(t *testing.T) {
	noCRC := strings.TrimSuffix(staticPayload, "6304C653")
	crcNotLast := noCRC + "6304C653" + "0102AB"
	shortCRC := noCRC + "6303ABC"

	tests := []struct {
		name    string
		raw     string
		amount  decimal.Decimal
		mode    Mode
		wantErr error
	}{
		{name: "zero amount", raw: legacyPayload, amount: decimal.Zero, mode: ModeLegacy, wantErr: ErrInvalidAmount},
		{name: "negative amount", raw: strictPayload, amount: decimal.NewFromInt(-5), mode: ModeStrict, wantErr: ErrInvalidAmount},
		{name: "legacy fraction", raw: legacyPayload, amount: decimal.RequireFromString("1.50"), mode: ModeLegacy, wantErr: ErrInvalidAmount},
		{name: "legacy needs 13 wide field", raw: strictPayload, amount: decimal.NewFromInt(10), mode: ModeLegacy, wantErr: ErrMalformedPayload},
		{name: "legacy missing amount", raw: staticPayload, amount: decimal.NewFromInt(10), mode: ModeLegacy, wantErr: ErrMalformedPayload},
		{name: "strict missing amount", raw: staticPayload, amount: decimal.NewFromInt(10), mode: ModeStrict, wantErr: ErrMalformedPayload},
		{name: "static already has amount", raw: strictPayload, amount: decimal.NewFromInt(10), mode: ModeStatic, wantErr: ErrMalformedPayload},
		{name: "missing checksum", raw: noCRC, amount: decimal.NewFromInt(10), mode: ModeStatic, wantErr: ErrMalformedPayload},
		{name: "checksum not last", raw: crcNotLast, amount: decimal.NewFromInt(10), mode: ModeStatic, wantErr: ErrMalformedPayload},
		{name: "short checksum", raw: shortCRC, amount: decimal.NewFromInt(10), mode: ModeStatic, wantErr: ErrMalformedPayload},
		{name: "garbage", raw: "hello world", amount: decimal.NewFromInt(10), mode: ModeStatic, wantErr: ErrMalformedPayload},
		{name: "unknown mode", raw: staticPayload, amount: decimal.NewFromInt(10), mode: Mode("guess"), wantErr: ErrInvalidMode},
		{name: "amount over budget", raw: strictPayload, amount: decimal.RequireFromString("99999999999999"), mode: ModeStrict, wantErr: ErrValueTooLong},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Rewrite(tc.raw, tc.amount, tc.mode)
			require.ErrorIs(t, err, tc.wantErr)
			assert.Empty(t, got)
		})
	}
}

func TestRewriteStaticRequiresInitiationAndCountry(t *testing.T) {
	p, err := Parse(staticPayload)
	require.NoError(t, err)

	noCountry, err := Seal(p.Without(TagCountry))
	require.NoError(t, err)
	_, err = Rewrite(noCountry, decimal.NewFromInt(10), ModeStatic)
	assert.ErrorIs(t, err, ErrMalformedPayload)

	noInitiation, err := Seal(p.Without(TagInitiation))
	require.NoError(t, err)
	_, err = Rewrite(noInitiation, decimal.NewFromInt(10), ModeStatic)
	assert.ErrorIs(t, err, ErrMalformedPayload)

	odd, err := p.With(TagInitiation, "99")
	require.NoError(t, err)
	oddRaw, err := Seal(odd)
	require.NoError(t, err)
	_, err = Rewrite(oddRaw, decimal.NewFromInt(10), ModeStatic)
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestVerify(t *testing.T) {
	assert.NoError(t, Verify(staticPayload))
	assert.NoError(t, Verify(strings.TrimSuffix(staticPayload, "C653")+"c653"))

	tampered := strings.Replace(staticPayload, "TOKO CONTOH", "TOKO CONTOX", 1)
	assert.ErrorIs(t, Verify(tampered), ErrChecksumMismatch)
	assert.ErrorIs(t, Verify("0002016304"), ErrMalformedPayload)
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"legacy": ModeLegacy, " STRICT ": ModeStrict, "Static": ModeStatic} {
		got, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseMode("")
	assert.ErrorIs(t, err, ErrInvalidMode)
	_, err = ParseMode("auto")
	assert.ErrorIs(t, err, ErrInvalidMode)
}

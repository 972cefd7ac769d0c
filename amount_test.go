package tokenrelay_test

import (
	. "github.com/cordialsys/tokenrelay"
)

func (s *TokenRelayTestSuite) TestAmountToBlockchain() {
	require := s.Require()

	amount, err := NewAmountHumanReadableFromStr("10.3")
	require.NoError(err)
	base, err := amount.ToBlockchain(6)
	require.NoError(err)
	require.EqualValues(10_300_000, base)

	amount, _ = NewAmountHumanReadableFromStr("0.0000001")
	_, err = amount.ToBlockchain(6)
	require.ErrorContains(err, "more than 6 decimals")

	amount, _ = NewAmountHumanReadableFromStr("-1")
	_, err = amount.ToBlockchain(6)
	require.Error(err)

	amount, _ = NewAmountHumanReadableFromStr("18446744073709551616")
	_, err = amount.ToBlockchain(0)
	require.ErrorContains(err, "overflows")

	_, err = NewAmountHumanReadableFromStr("invalid")
	require.Error(err)
}

func (s *TokenRelayTestSuite) TestToHuman() {
	require := s.Require()
	require.Equal("1.5", ToHuman(1_500_000_000, 9).String())
	require.Equal("0", ToHuman(0, 9).String())
}

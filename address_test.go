package tokenrelay_test

import (
	. "github.com/cordialsys/tokenrelay"
	"github.com/gagliardetto/solana-go"
)

func (s *TokenRelayTestSuite) TestParseExternalAddress() {
	require := s.Require()

	addr, err := ParseExternalAddress("0xdeadbeef")
	require.NoError(err)
	require.Equal(byte(0xde), addr[28])
	require.Equal(byte(0xef), addr[31])
	require.False(addr.IsZero())

	key := solana.MustPublicKeyFromBase58("Hzn3n914JaSpnxo5mBbmuCDmGL6mxWN9Ac2HzEXFSGtb")
	addr, err = ParseExternalAddress(key.String())
	require.NoError(err)
	require.Equal(key, addr.PublicKey())

	_, err = ParseExternalAddress("0x" + "00" + "1122334455667788990011223344556677889900112233445566778899001122")
	require.ErrorContains(err, "longer than 32 bytes")

	_, err = ParseExternalAddress("not-an-address")
	require.Error(err)
}

func (s *TokenRelayTestSuite) TestChainID() {
	require := s.Require()

	id, err := ParseChainID("ethereum")
	require.NoError(err)
	require.Equal(ChainEthereum, id)

	id, err = ParseChainID("30")
	require.NoError(err)
	require.Equal(ChainBase, id)
	require.Equal("base", id.String())

	require.Equal("unknown(999)", ChainID(999).String())

	_, err = ParseChainID("nowhere")
	require.Error(err)
}

package auctionhouse

import (
	"errors"

	"auctionhouse/core/state"
	"auctionhouse/crypto/pda"
	"auctionhouse/native/token"
)

var (
	ErrPublicKeyMismatch            = errors.New("auctionhouse: public key mismatch")
	ErrUninitializedAccount         = errors.New("auctionhouse: account is not initialized")
	ErrIncorrectOwner               = errors.New("auctionhouse: account owner is incorrect")
	ErrAccountDiscriminatorMismatch = errors.New("auctionhouse: account discriminator mismatch")
	ErrNumericalOverflow            = errors.New("auctionhouse: numerical overflow")
	ErrExpectedSolAccount           = errors.New("auctionhouse: expected a native payment account")
	ErrWalletMustSign               = errors.New("auctionhouse: wallet must sign")
	ErrSignOffRequired              = errors.New("auctionhouse: cannot take this action without marketplace sign-off")
	ErrNoPayerPresent               = errors.New("auctionhouse: no payer present")
	ErrDerivedKeyInvalid            = errors.New("auctionhouse: derived key invalid")
	ErrInvalidTokenAmount           = errors.New("auctionhouse: invalid token amount")
	ErrBothPartiesNeedToAgreeToSale = errors.New("auctionhouse: both parties need to agree to this sale")
	ErrCannotMatchFreeSales         = errors.New("auctionhouse: free sales require marketplace or seller sign-off")
	ErrSaleRequiresSigner           = errors.New("auctionhouse: sale requires a signer")
	ErrTokenNotDelegated            = errors.New("auctionhouse: token account is not delegated to the program signer")
	ErrNoValidSignerPresent         = errors.New("auctionhouse: no valid signer present")
	ErrInvalidBasisPoints           = errors.New("auctionhouse: basis points cannot exceed 10000")
	ErrInvalidTradeState            = errors.New("auctionhouse: trade state is invalid")
	ErrTradeStateDoesntExist        = errors.New("auctionhouse: trade state does not exist")
	ErrAuctionHouseAlreadyExists    = errors.New("auctionhouse: auction house already exists")
	ErrInvalidAuthority             = errors.New("auctionhouse: authority does not match")
	ErrInsufficientFunds            = errors.New("auctionhouse: insufficient funds")
	ErrInstructionMismatch          = errors.New("auctionhouse: preceding instruction does not match")
	ErrReceiptAlreadyExists         = errors.New("auctionhouse: receipt already exists")
	ErrReceiptAlreadyCanceled       = errors.New("auctionhouse: receipt already canceled")
	ErrInvalidAuctioneer            = errors.New("auctionhouse: auctioneer record does not belong to this house and controller")
	ErrAuctioneerMustSign           = errors.New("auctionhouse: auctioneer authority must sign")
	ErrTooManyScopes                = errors.New("auctionhouse: too many scopes")
	ErrInvalidScope                 = errors.New("auctionhouse: unknown scope")
	ErrAuctionHouseNotDelegated     = errors.New("auctionhouse: auction house is not delegated")
	ErrAuctionHouseAlreadyDelegated = errors.New("auctionhouse: auction house is already delegated")
	ErrMissingAuctioneerScope       = errors.New("auctionhouse: auctioneer lacks the required scope")
	ErrMustUseAuctioneerHandler     = errors.New("auctionhouse: this operation must go through the auctioneer")
	ErrInvalidSignature             = errors.New("auctionhouse: invalid transaction signature")
	ErrEmptyTransaction             = errors.New("auctionhouse: transaction has no instructions")
	ErrUnknownInstruction           = errors.New("auctionhouse: unknown instruction")
)

// errorCodes assigns every sentinel a stable numeric code for clients.
var errorCodes = []struct {
	err  error
	code uint32
}{
	{ErrPublicKeyMismatch, 6000},
	{ErrUninitializedAccount, 6002},
	{ErrIncorrectOwner, 6003},
	{ErrNumericalOverflow, 6007},
	{ErrExpectedSolAccount, 6008},
	{ErrWalletMustSign, 6010},
	{ErrSignOffRequired, 6011},
	{ErrNoPayerPresent, 6012},
	{ErrDerivedKeyInvalid, 6013},
	{ErrInvalidTokenAmount, 6015},
	{ErrBothPartiesNeedToAgreeToSale, 6016},
	{ErrCannotMatchFreeSales, 6017},
	{ErrSaleRequiresSigner, 6018},
	{ErrTokenNotDelegated, 6020},
	{ErrNoValidSignerPresent, 6022},
	{ErrInvalidBasisPoints, 6023},
	{ErrTradeStateDoesntExist, 6024},
	{ErrInvalidTradeState, 6025},
	{ErrInstructionMismatch, 6027},
	{ErrInvalidAuctioneer, 6028},
	{ErrTooManyScopes, 6029},
	{ErrAuctionHouseNotDelegated, 6030},
	{ErrInsufficientFunds, 6033},
	{ErrAuctionHouseAlreadyDelegated, 6039},
	{ErrMissingAuctioneerScope, 6041},
	{ErrMustUseAuctioneerHandler, 6042},
	{ErrReceiptAlreadyCanceled, 6043},
	{ErrReceiptAlreadyExists, 6044},
	{ErrAuctioneerMustSign, 6045},
	{ErrInvalidScope, 6046},
	{ErrAuctionHouseAlreadyExists, 6047},
	{ErrInvalidAuthority, 6048},
	{ErrAccountDiscriminatorMismatch, 6049},
	{ErrInvalidSignature, 6050},
	{ErrEmptyTransaction, 6051},
	{ErrUnknownInstruction, 6052},
}

// ErrorCode maps err onto its stable numeric code. Errors raised by the
// ledger are folded onto the closest program error; anything else is 0.
func ErrorCode(err error) uint32 {
	if err == nil {
		return 0
	}
	for _, entry := range errorCodes {
		if errors.Is(err, entry.err) {
			return entry.code
		}
	}
	switch {
	case errors.Is(err, pda.ErrDerivationMismatch), errors.Is(err, pda.ErrNoViableBump):
		return 6013
	case errors.Is(err, state.ErrInsufficientFunds):
		return 6033
	case errors.Is(err, state.ErrArithmeticOverflow):
		return 6007
	case errors.Is(err, state.ErrMissingSigner):
		return 6022
	case errors.Is(err, token.ErrInvalidAssociate):
		return 6000
	case errors.Is(err, state.ErrAlreadyProcessed):
		return 6053
	}
	return 0
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"aurum/internal/authz"
	"aurum/internal/custody/models"
	assetstore "aurum/internal/custody/store/asset"
	ledgerservice "aurum/internal/ledger/service"
	accountstore "aurum/internal/ledger/store/account"
	"aurum/internal/platform/storetx"
	id "aurum/pkg/domain"
	dErrors "aurum/pkg/domain-errors"
	"aurum/pkg/requestcontext"
)

const (
	platformAddr  = id.Address("addr-platform")
	refinerAddr   = id.Address("addr-refiner")
	custodianAddr = id.Address("addr-custodian")
	ownerAddr     = id.Address("addr-owner")
	buyerAddr     = id.Address("addr-buyer")
	memberGIC     = id.MemberID("GIC-100")
)

type CustodyServiceSuite struct {
	suite.Suite
	registry  *authz.InMemory
	ledger    *ledgerservice.Service
	svc       *Service
	accountID id.AccountID
}

func (s *CustodyServiceSuite) SetupTest() {
	s.registry = authz.NewInMemory()
	s.registry.GrantRole(platformAddr, id.RolePlatform)
	s.registry.GrantRole(refinerAddr, id.RoleRefiner|id.RoleMinter)
	s.registry.GrantRole(custodianAddr, id.RoleCustodian)
	s.registry.SetMemberStatus(memberGIC, id.MemberActive)

	runner := storetx.NewInMemory()
	s.ledger = ledgerservice.NewService(accountstore.NewInMemory(), s.registry,
		ledgerservice.WithTx(runner))
	capability := s.ledger.GrantWriteCapability("custody")
	s.svc = NewService(assetstore.NewInMemory(), s.registry, capability, WithTx(runner))

	account, err := s.ledger.CreateAccount(s.asCaller(platformAddr), memberGIC, ownerAddr)
	s.Require().NoError(err)
	s.accountID = account.ID
}

func TestCustodyServiceSuite(t *testing.T) {
	suite.Run(t, new(CustodyServiceSuite))
}

func (s *CustodyServiceSuite) asCaller(addr id.Address) context.Context {
	ctx := requestcontext.WithCaller(context.Background(), addr)
	return requestcontext.WithTime(ctx, time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
}

func (s *CustodyServiceSuite) mintParams(warrant string) models.MintParams {
	return models.MintParams{
		Owner:       ownerAddr,
		AccountID:   s.accountID,
		Serial:      "AU-" + warrant,
		Refiner:     "Aurora Refining",
		WeightGrams: 12441,
		Fineness:    9999,
		ProductType: "CAST_BAR",
		CertHash:    "cert-hash-1",
		MemberID:    memberGIC,
		Certified:   true,
		WarrantID:   id.WarrantID(warrant),
	}
}

func (s *CustodyServiceSuite) TestMint() {
	s.Run("mints a token and credits the ledger account", func() {
		asset, err := s.svc.Mint(s.asCaller(refinerAddr), s.mintParams("W-1"))
		s.Require().NoError(err)
		s.Equal("GBT-1", asset.ID.String())
		s.Equal(models.StatusRegistered, asset.Status)
		s.Equal(s.accountID, asset.MintAccountID)
		s.Equal(int64(12439), asset.FineWeight)

		balance, err := s.ledger.GetAccountBalance(context.Background(), s.accountID)
		s.Require().NoError(err)
		s.Equal(int64(1), balance)
	})

	s.Run("refuses a reused warrant and leaves the ledger untouched", func() {
		_, err := s.svc.Mint(s.asCaller(refinerAddr), s.mintParams("W-1"))
		s.Require().True(dErrors.HasCode(err, dErrors.CodeConflict))

		balance, err := s.ledger.GetAccountBalance(context.Background(), s.accountID)
		s.Require().NoError(err)
		s.Equal(int64(1), balance)
	})

	s.Run("refuses callers without refiner or minter role", func() {
		_, err := s.svc.Mint(s.asCaller(custodianAddr), s.mintParams("W-2"))
		s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("refuses a mint against an unknown account", func() {
		p := s.mintParams("W-3")
		missing, err := id.ParseAccountID("IGAN-9999")
		s.Require().NoError(err)
		p.AccountID = missing

		_, err = s.svc.Mint(s.asCaller(refinerAddr), p)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *CustodyServiceSuite) TestBurn() {
	asset, err := s.svc.Mint(s.asCaller(refinerAddr), s.mintParams("W-10"))
	s.Require().NoError(err)

	s.Run("debits the mint-time account even when another account is named", func() {
		other, err := s.ledger.CreateAccount(s.asCaller(platformAddr), memberGIC, buyerAddr)
		s.Require().NoError(err)

		burned, err := s.svc.Burn(s.asCaller(refinerAddr), asset.ID, other.ID, "REDEMPTION")
		s.Require().NoError(err)
		s.Equal(models.StatusBurned, burned.Status)

		mintBalance, err := s.ledger.GetAccountBalance(context.Background(), s.accountID)
		s.Require().NoError(err)
		s.Equal(int64(0), mintBalance)

		otherBalance, err := s.ledger.GetAccountBalance(context.Background(), other.ID)
		s.Require().NoError(err)
		s.Equal(int64(0), otherBalance)
	})

	s.Run("refuses a second burn", func() {
		_, err := s.svc.Burn(s.asCaller(refinerAddr), asset.ID, s.accountID, "REDEMPTION")
		s.Require().True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("requires a reason", func() {
		minted, err := s.svc.Mint(s.asCaller(refinerAddr), s.mintParams("W-11"))
		s.Require().NoError(err)
		_, err = s.svc.Burn(s.asCaller(refinerAddr), minted.ID, s.accountID, "")
		s.Require().True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("leaves the token live when the ledger refuses the debit", func() {
		minted, err := s.svc.Mint(s.asCaller(refinerAddr), s.mintParams("W-12"))
		s.Require().NoError(err)

		// Drain the account below the debit first.
		_, err = s.ledger.UpdateBalance(s.asCaller(platformAddr), s.accountID, -2, "ADJUSTMENT", "")
		s.Require().NoError(err)

		_, err = s.svc.Burn(s.asCaller(refinerAddr), minted.ID, s.accountID, "REDEMPTION")
		s.Require().True(dErrors.HasCode(err, dErrors.CodeInsufficientBalance))

		current, err := s.svc.GetAsset(context.Background(), minted.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusRegistered, current.Status)
	})
}

func (s *CustodyServiceSuite) TestUpdateStatus() {
	asset, err := s.svc.Mint(s.asCaller(refinerAddr), s.mintParams("W-20"))
	s.Require().NoError(err)

	s.Run("owner can move the token through custody states", func() {
		updated, err := s.svc.UpdateStatus(s.asCaller(ownerAddr), asset.ID, models.StatusInVault, "vaulted")
		s.Require().NoError(err)
		s.Equal(models.StatusInVault, updated.Status)
	})

	s.Run("asset operator roles can too", func() {
		updated, err := s.svc.UpdateStatus(s.asCaller(custodianAddr), asset.ID, models.StatusPledged, "collateral")
		s.Require().NoError(err)
		s.Equal(models.StatusPledged, updated.Status)

		locked, err := s.svc.IsAssetLocked(context.Background(), asset.ID)
		s.Require().NoError(err)
		s.True(locked)
	})

	s.Run("strangers cannot", func() {
		_, err := s.svc.UpdateStatus(s.asCaller(buyerAddr), asset.ID, models.StatusInVault, "")
		s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *CustodyServiceSuite) TestTransfer() {
	asset, err := s.svc.Mint(s.asCaller(refinerAddr), s.mintParams("W-30"))
	s.Require().NoError(err)

	s.Run("owner transfers an unlocked token", func() {
		moved, err := s.svc.Transfer(s.asCaller(ownerAddr), ownerAddr, buyerAddr, asset.ID)
		s.Require().NoError(err)
		s.Equal(buyerAddr, moved.Owner)

		tokens, err := s.svc.TokensByOwner(context.Background(), buyerAddr)
		s.Require().NoError(err)
		s.Len(tokens, 1)
	})

	s.Run("only the transferor may call", func() {
		_, err := s.svc.Transfer(s.asCaller(ownerAddr), buyerAddr, ownerAddr, asset.ID)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("blacklisted counterparty refuses the transfer", func() {
		s.registry.SetBlacklisted(ownerAddr, true)
		_, err := s.svc.Transfer(s.asCaller(buyerAddr), buyerAddr, ownerAddr, asset.ID)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeCompliance))
		s.registry.SetBlacklisted(ownerAddr, false)
	})

	s.Run("locked token refuses both transfer and force transfer", func() {
		_, err := s.svc.UpdateStatus(s.asCaller(custodianAddr), asset.ID, models.StatusPledged, "collateral")
		s.Require().NoError(err)

		_, err = s.svc.Transfer(s.asCaller(buyerAddr), buyerAddr, ownerAddr, asset.ID)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeInvalidState))

		_, err = s.svc.ForceTransfer(s.asCaller(platformAddr), asset.ID, buyerAddr, ownerAddr, "court order")
		s.Require().True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("settlement authority moves a locked token and unlocks it", func() {
		authority := s.svc.GrantSettlementAuthority()
		moved, err := authority.Reassign(s.asCaller(platformAddr), asset.ID, ownerAddr, id.OrderRef("TX-9"))
		s.Require().NoError(err)
		s.Equal(ownerAddr, moved.Owner)
		s.Equal(models.StatusInVault, moved.Status)
	})

	s.Run("force transfer overrides the blacklist on an unlocked token", func() {
		s.registry.SetBlacklisted(buyerAddr, true)
		moved, err := s.svc.ForceTransfer(s.asCaller(platformAddr), asset.ID, ownerAddr, buyerAddr, "dispute resolution")
		s.Require().NoError(err)
		s.Equal(buyerAddr, moved.Owner)
	})
}

func (s *CustodyServiceSuite) TestUpdateCustodyBatch() {
	a1, err := s.svc.Mint(s.asCaller(refinerAddr), s.mintParams("W-40"))
	s.Require().NoError(err)
	a2, err := s.svc.Mint(s.asCaller(refinerAddr), s.mintParams("W-41"))
	s.Require().NoError(err)

	s.Run("moves every token to in transit", func() {
		err := s.svc.UpdateCustodyBatch(s.asCaller(custodianAddr),
			[]id.TokenID{a1.ID, a2.ID}, custodianAddr, "ARMORED_TRUCK")
		s.Require().NoError(err)

		for _, tokenID := range []id.TokenID{a1.ID, a2.ID} {
			asset, err := s.svc.GetAsset(context.Background(), tokenID)
			s.Require().NoError(err)
			s.Equal(models.StatusInTransit, asset.Status)
		}
	})

	s.Run("a burned token fails the whole batch", func() {
		_, err := s.svc.UpdateStatus(s.asCaller(custodianAddr), a2.ID, models.StatusInVault, "arrived")
		s.Require().NoError(err)
		_, err = s.svc.Burn(s.asCaller(refinerAddr), a2.ID, s.accountID, "REDEMPTION")
		s.Require().NoError(err)

		err = s.svc.UpdateCustodyBatch(s.asCaller(custodianAddr),
			[]id.TokenID{a1.ID, a2.ID}, custodianAddr, "ARMORED_TRUCK")
		s.Require().True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("requires custodian role", func() {
		err := s.svc.UpdateCustodyBatch(s.asCaller(ownerAddr), []id.TokenID{a1.ID}, custodianAddr, "")
		s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *CustodyServiceSuite) TestVerifyCertificate() {
	asset, err := s.svc.Mint(s.asCaller(refinerAddr), s.mintParams("W-50"))
	s.Require().NoError(err)

	ok, err := s.svc.VerifyCertificate(context.Background(), asset.ID, "cert-hash-1")
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.svc.VerifyCertificate(context.Background(), asset.ID, "tampered")
	s.Require().NoError(err)
	s.False(ok)

	_, err = s.svc.VerifyCertificate(context.Background(), id.TokenID("GBT-404"), "cert-hash-1")
	s.Require().True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

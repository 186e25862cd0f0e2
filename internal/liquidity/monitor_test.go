package liquidity

import (
	"context"
	"testing"
)

func TestMonitor_StartAndEvaluateStable(t *testing.T) {
	m := NewMonitor()
	m.StartSession("Mint1", 1000.0, 0.01, StartOpts{})

	if !m.IsMonitored("Mint1") {
		t.Fatalf("expected session to be monitored")
	}

	m.AddSnapshot("Mint1", 950.0, 0.0095, nil)
	m.RecordTransaction("Mint1", "walletA", true, 100)
	m.RecordTransaction("Mint1", "walletB", true, 50)

	result := m.Evaluate("Mint1")
	if !result.Stable {
		t.Errorf("expected stable session, got %+v", result)
	}
	if result.LiquidityDropPercent <= 0 {
		t.Errorf("expected positive liquidity drop, got %f", result.LiquidityDropPercent)
	}
}

func TestMonitor_EvaluateUnstableOnLPWithdrawal(t *testing.T) {
	m := NewMonitor()
	m.StartSession("Mint2", 1000.0, 0.01, StartOpts{})
	m.RecordLPWithdrawal("Mint2")

	result := m.Evaluate("Mint2")
	if result.Stable {
		t.Errorf("expected unstable session after LP withdrawal")
	}
	if !result.LPWithdrawalDetected {
		t.Errorf("expected LPWithdrawalDetected=true")
	}
}

func TestMonitor_EvaluateUnstableOnDominantBuyer(t *testing.T) {
	m := NewMonitor()
	m.StartSession("Mint3", 1000.0, 0.01, StartOpts{})
	m.RecordTransaction("Mint3", "whale", true, 900)
	m.RecordTransaction("Mint3", "minnow", true, 100)

	result := m.Evaluate("Mint3")
	if result.DominantBuyerPercent != 90 {
		t.Errorf("expected dominant buyer percent 90, got %f", result.DominantBuyerPercent)
	}
	if result.Stable {
		t.Errorf("expected unstable session with 90%% dominant buyer")
	}
}

func TestMonitor_StopSessionRemovesIt(t *testing.T) {
	m := NewMonitor()
	m.StartSession("Mint4", 1000.0, 0.01, StartOpts{})
	m.StopSession("Mint4")
	if m.IsMonitored("Mint4") {
		t.Errorf("expected session to be removed after Stop")
	}
}

func TestMonitor_StartStopLifecycle(t *testing.T) {
	m := NewMonitor()
	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)
	m.Stop()
	cancel()
}

func TestMonitor_DeployerLPTransferOnlyCountsDeployer(t *testing.T) {
	m := NewMonitor()
	m.StartSession("Mint5", 1000.0, 0.01, StartOpts{DeployerWallet: "deployer1"})
	m.RecordDeployerLPTransfer("Mint5", "someoneElse")
	m.RecordDeployerLPTransfer("Mint5", "deployer1")

	result := m.Evaluate("Mint5")
	if !result.DeployerLPTransfer {
		t.Errorf("expected deployer LP transfer to be detected")
	}
}

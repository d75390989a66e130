package analytics

import (
	"testing"
	"time"

	"tradeJournal/internal/domain"
)

func TestAnalyzeRisk(t *testing.T) {
	trades := []domain.Trade{
		manualTrade("1", "1000", baseTime),
		manualTrade("2", "-1000", baseTime.Add(24*time.Hour)),
	}

	metrics := AnalyzeRisk(trades, false)

	if metrics.MaxConsecutiveWins != 1 {
		t.Errorf("Expected 1 max consecutive wins, got %d", metrics.MaxConsecutiveWins)
	}
	if metrics.MaxConsecutiveLosses != 1 {
		t.Errorf("Expected 1 max consecutive losses, got %d", metrics.MaxConsecutiveLosses)
	}
	if !metrics.Expectancy.IsZero() {
		t.Errorf("Expected 0 expectancy, got %s", metrics.Expectancy)
	}
	if !metrics.RiskRewardRatio.Equal(dec("1")) {
		t.Errorf("Expected 1 risk reward ratio, got %s", metrics.RiskRewardRatio)
	}
	if len(metrics.EquityCurve) != 2 {
		t.Errorf("Expected 2 equity curve points, got %d", len(metrics.EquityCurve))
	}
	if metrics.ProfitStdDev <= 0 {
		t.Errorf("Expected positive profit stddev, got %f", metrics.ProfitStdDev)
	}
}

func TestAnalyzeRiskEmptyTrades(t *testing.T) {
	metrics := AnalyzeRisk(nil, true)
	if !metrics.MaxDrawdown.IsZero() {
		t.Errorf("Expected 0 max drawdown, got %s", metrics.MaxDrawdown)
	}
	if metrics.Drawdowns == nil || metrics.EquityCurve == nil {
		t.Errorf("Expected empty, non-nil slices")
	}
	if metrics.SharpeRatio != 0 {
		t.Errorf("Expected 0 sharpe ratio, got %f", metrics.SharpeRatio)
	}
}

func TestAnalyzeRiskDrawdown(t *testing.T) {
	trades := []domain.Trade{
		manualTrade("1", "1000", baseTime),
		manualTrade("2", "-2200", baseTime.Add(24*time.Hour)),
	}

	metrics := AnalyzeRisk(trades, false)

	if !metrics.MaxDrawdown.Equal(dec("2200")) {
		t.Errorf("Expected 2200 max drawdown, got %s", metrics.MaxDrawdown)
	}
	if len(metrics.Drawdowns) != 1 {
		t.Fatalf("Expected 1 drawdown period, got %d", len(metrics.Drawdowns))
	}
	if metrics.Drawdowns[0].Recovered {
		t.Errorf("Expected drawdown to be unrecovered")
	}
	if !metrics.Drawdowns[0].StartValue.Equal(dec("1000")) {
		t.Errorf("Expected drawdown to start at 1000, got %s", metrics.Drawdowns[0].StartValue)
	}

	trades = append(trades, manualTrade("3", "2960", baseTime.Add(48*time.Hour)))
	metrics = AnalyzeRisk(trades, false)

	if len(metrics.Drawdowns) != 1 || !metrics.Drawdowns[0].Recovered {
		t.Errorf("Expected one recovered drawdown, got %+v", metrics.Drawdowns)
	}
	if !metrics.RecoveryFactor.Equal(dec("0.8")) {
		t.Errorf("Expected 0.8 recovery factor, got %s", metrics.RecoveryFactor)
	}
}

func TestAnalyzeRiskConsecutiveTrades(t *testing.T) {
	trades := []domain.Trade{
		manualTrade("1", "10", baseTime),
		manualTrade("2", "20", baseTime.Add(1*time.Hour)),
		manualTrade("3", "0", baseTime.Add(2*time.Hour)),
		manualTrade("4", "5", baseTime.Add(3*time.Hour)),
		manualTrade("5", "-1", baseTime.Add(4*time.Hour)),
		manualTrade("6", "-1", baseTime.Add(5*time.Hour)),
	}

	metrics := AnalyzeRisk(trades, false)

	if metrics.MaxConsecutiveWins != 2 {
		t.Errorf("Expected 2 max consecutive wins, got %d", metrics.MaxConsecutiveWins)
	}
	if metrics.MaxConsecutiveLosses != 2 {
		t.Errorf("Expected 2 max consecutive losses, got %d", metrics.MaxConsecutiveLosses)
	}
}

func TestAnalyzeRiskUsesExitOrder(t *testing.T) {
	late := manualTrade("late", "-50", baseTime)
	exit := baseTime.Add(10 * 24 * time.Hour)
	late.ExitDate = &exit
	early := manualTrade("early", "100", baseTime.Add(time.Hour))

	trades := []domain.Trade{late, early}
	metrics := AnalyzeRisk(trades, false)

	if len(metrics.EquityCurve) != 2 {
		t.Fatalf("Expected 2 equity points, got %d", len(metrics.EquityCurve))
	}
	if !metrics.EquityCurve[0].Value.Equal(dec("100")) || !metrics.EquityCurve[1].Value.Equal(dec("50")) {
		t.Errorf("Unexpected equity curve %+v", metrics.EquityCurve)
	}
	if trades[0].ID != "late" {
		t.Errorf("Input slice was reordered")
	}
}

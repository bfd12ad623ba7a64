package mocks

//go:generate mockgen -destination=./mock_marketdata.go -package=mocks VolumeBreakout/internal/runner MarketData
//go:generate mockgen -destination=./mock_sender.go -package=mocks VolumeBreakout/internal/notifier Sender

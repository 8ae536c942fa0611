package mocks

//go:generate go run go.uber.org/mock/mockgen -package mocks -destination tcb.go github.com/larknet/lark/congestion TCB

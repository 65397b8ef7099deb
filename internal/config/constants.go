package config

import "time"

const (
	RPCSelectTimeout = 10 * time.Second // probing a chain's RPC list
	SendTimeout      = 5 * time.Minute  // one send, wallet confirmation included
)

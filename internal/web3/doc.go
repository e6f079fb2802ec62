// Package web3 houses blockchain connectivity utilities: chain definitions
// loaded from YAML, shared result types, and the helpers the tool layer uses
// to perform standardized interactions with EVM networks, from plain
// transfers up to contract deployment and Uniswap V2 liquidity operations.
package web3

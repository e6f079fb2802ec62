package tools

import (
	"context"
	"math/big"
	"time"

	xerrors "PersonaChain/internal/errors"
	"PersonaChain/internal/llm"
	"PersonaChain/internal/notify"
	"PersonaChain/internal/tool"
	"PersonaChain/pkg/logger"
)

// deployFloorWei 是部署前要求的最低余额，0.0001 ETH。低于该值直接
// 返回结构化错误，不进入部署流程。
var deployFloorWei = big.NewInt(100_000_000_000_000)

// tokenCompilerVersion 与烘焙字节码的编译参数保持一致。
const (
	tokenCompilerVersion = "v0.8.24+commit.e11b9ed9"
	tokenOptimizerRuns   = 200
)

// DeployContractTool 部署代币合约并在主网络上提交源码验证。
// 验证轮询有界，超时不会吞掉已经成功的部署结果。所有权在最后放弃。
type DeployContractTool struct {
	wallets      WalletService
	chains       ChainResolver
	verifier     ContractVerifier
	sink         notify.Sink
	primaryChain string
	source       string
	contractName string
}

func NewDeployContractTool(wallets WalletService, chains ChainResolver, verifier ContractVerifier, sink notify.Sink, primaryChain string) *DeployContractTool {
	return &DeployContractTool{
		wallets:      wallets,
		chains:       chains,
		verifier:     verifier,
		sink:         notify.BestEffort(sink),
		primaryChain: primaryChain,
		source:       tokenContractSource,
		contractName: "PersonaToken",
	}
}

func (t *DeployContractTool) Name() string { return "deploy_contract" }

func (t *DeployContractTool) Spec() llm.ToolSpec {
	return spec("deploy_contract",
		"Deploy an ERC-20 token contract owned by this character, verify its source on the explorer, then renounce ownership.",
		`{"type":"object","properties":{"name":{"type":"string","description":"token name"},"symbol":{"type":"string","description":"token symbol"},"supply":{"type":"string","description":"initial supply in whole tokens, defaults to 1000000"},"chain":{"type":"string"}},"required":["name","symbol"]}`)
}

func (t *DeployContractTool) Invoke(ctx context.Context, input tool.Input) (any, error) {
	var args struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
		Supply string `json:"supply"`
		Chain  string `json:"chain"`
	}
	if err := decodeArgs(input.Args, &args); err != nil {
		return nil, err
	}
	if args.Name == "" || args.Symbol == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "代币名称与符号不能为空")
	}
	if args.Supply == "" {
		args.Supply = "1000000"
	}
	supply, err := parseUnits(args.Supply, 18)
	if err != nil {
		return nil, err
	}

	record, err := t.wallets.Get(ctx, input.Owner, input.Persona)
	if err != nil {
		return nil, err
	}
	client, err := t.chains(args.Chain)
	if err != nil {
		return nil, err
	}
	deployer, err := parseAddress(record.Address, "钱包地址")
	if err != nil {
		return nil, err
	}

	balance, err := client.BalanceAt(ctx, deployer)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(deployFloorWei) < 0 {
		return nil, insufficientFunds(balance, deployFloorWei)
	}

	progress := notify.StartProgress(ctx, t.sink, input.SessionID, input.Persona, []notify.Stage{
		{After: 8 * time.Second, Text: "Deployment transaction is in the mempool, waiting for a block..."},
		{After: 25 * time.Second, Text: "Still waiting on confirmations. Chains move at their own pace."},
	})
	deployment, err := client.DeployERC20(ctx, record.PrivateKey, args.Name, args.Symbol, supply)
	if err != nil {
		progress.Stop()
		return nil, err
	}
	_, err = client.WaitForReceipt(ctx, deployment.Transaction.Hash(), fundedConfirmations)
	progress.Stop()
	if err != nil {
		return nil, err
	}

	_ = t.sink.GodEvent(ctx, input.SessionID, notify.NewEvent(input.Owner, input.Persona,
		"contract_deployed", map[string]string{
			"address": deployment.ContractAddress.Hex(),
			"tx_hash": deployment.Transaction.Hash().Hex(),
			"symbol":  args.Symbol,
		}))

	verified := t.verify(ctx, client.Name(), deployment.ContractAddress.Hex())

	// 验证完成后才放弃所有权，验证器可能需要 owner 视角的状态。
	renounceTx, err := client.RenounceOwnership(ctx, record.PrivateKey, deployment.ContractAddress)
	if err != nil {
		return nil, err
	}
	if _, err := client.WaitForReceipt(ctx, renounceTx, approveConfirmations); err != nil {
		return nil, err
	}

	remaining, err := client.BalanceAt(ctx, deployer)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"contract_address": deployment.ContractAddress.Hex(),
		"tx_hash":          deployment.Transaction.Hash().Hex(),
		"name":             args.Name,
		"symbol":           args.Symbol,
		"supply":           args.Supply,
		"verified":         verified,
		"ownership":        "renounced",
		"deployer_balance": formatUnits(remaining, 18),
		"chain":            client.Name(),
	}, nil
}

// verify 只在主网络上提交验证。轮询超时或失败不改变部署结果，
// 以 verified=false 反馈给模型并记录日志。
func (t *DeployContractTool) verify(ctx context.Context, chainName, address string) bool {
	if t.verifier == nil || chainName != t.primaryChain {
		return false
	}
	guid, err := t.verifier.Submit(ctx, VerifyRequest{
		ContractAddress: address,
		SourceCode:      t.source,
		ContractName:    t.contractName,
		CompilerVersion: tokenCompilerVersion,
		Optimization:    true,
		Runs:            tokenOptimizerRuns,
	})
	if err != nil {
		logger.Named("tools").Warn("合约验证提交失败", "address", address, "error", err)
		return false
	}
	if err := t.verifier.WaitForVerification(ctx, guid); err != nil {
		logger.Named("tools").Warn("合约验证未完成", "address", address, "guid", guid, "error", err)
		return false
	}
	return true
}

// tokenContractSource 是烘焙代币的源码，提交给浏览器验证用。
const tokenContractSource = `// SPDX-License-Identifier: MIT
pragma solidity ^0.8.24;

import {ERC20} from "@openzeppelin/contracts/token/ERC20/ERC20.sol";
import {Ownable} from "@openzeppelin/contracts/access/Ownable.sol";

contract PersonaToken is ERC20, Ownable {
    constructor(string memory name_, string memory symbol_, uint256 initialSupply)
        ERC20(name_, symbol_)
        Ownable(msg.sender)
    {
        _mint(msg.sender, initialSupply);
    }
}
`

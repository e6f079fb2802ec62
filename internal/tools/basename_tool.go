package tools

import (
	"context"
	"fmt"
	"strings"

	xerrors "PersonaChain/internal/errors"
	"PersonaChain/internal/llm"
	"PersonaChain/internal/notify"
	"PersonaChain/internal/tool"
)

// ManageBasenameTool 为人格钱包注册链上名字。钱包已有名字时直接跳过，
// 注册成功后把名字写回钱包记录。
type ManageBasenameTool struct {
	wallets WalletService
	chains  ChainResolver
	sink    notify.Sink
}

func NewManageBasenameTool(wallets WalletService, chains ChainResolver, sink notify.Sink) *ManageBasenameTool {
	return &ManageBasenameTool{wallets: wallets, chains: chains, sink: notify.BestEffort(sink)}
}

func (t *ManageBasenameTool) Name() string { return "manage_basename" }

func (t *ManageBasenameTool) Spec() llm.ToolSpec {
	return spec("manage_basename",
		"Register an onchain basename for this character's wallet. Does nothing when a basename is already registered.",
		`{"type":"object","properties":{"name":{"type":"string","description":"desired name without the TLD suffix"},"chain":{"type":"string"}},"required":["name"]}`)
}

func (t *ManageBasenameTool) Invoke(ctx context.Context, input tool.Input) (any, error) {
	var args struct {
		Name  string `json:"name"`
		Chain string `json:"chain"`
	}
	if err := decodeArgs(input.Args, &args); err != nil {
		return nil, err
	}
	name := strings.ToLower(strings.TrimSpace(args.Name))
	if name == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "名字不能为空")
	}

	record, err := t.wallets.Get(ctx, input.Owner, input.Persona)
	if err != nil {
		return nil, err
	}
	if record.BaseName != "" {
		return map[string]any{
			"base_name": record.BaseName,
			"skipped":   true,
		}, nil
	}

	client, err := t.chains(args.Chain)
	if err != nil {
		return nil, err
	}
	owner, err := parseAddress(record.Address, "钱包地址")
	if err != nil {
		return nil, err
	}

	available, err := client.BaseNameAvailable(ctx, name)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, xerrors.New(xerrors.CodeConflict,
			fmt.Sprintf("名字 %s 已被注册", name))
	}

	txHash, err := client.RegisterBaseName(ctx, record.PrivateKey, name, owner)
	if err != nil {
		return nil, err
	}
	if _, err := client.WaitForReceipt(ctx, txHash, fundedConfirmations); err != nil {
		return nil, err
	}
	if err := t.wallets.SetBaseName(ctx, input.Owner, input.Persona, name); err != nil {
		return nil, err
	}

	_ = t.sink.GodEvent(ctx, input.SessionID, notify.NewEvent(input.Owner, input.Persona,
		"basename_registered", map[string]string{
			"name":    name,
			"address": record.Address,
			"tx_hash": txHash.Hex(),
		}))

	return map[string]any{
		"base_name": name,
		"tx_hash":   txHash.Hex(),
		"skipped":   false,
	}, nil
}

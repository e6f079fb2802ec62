package tools

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"PersonaChain/internal/assets"
	xerrors "PersonaChain/internal/errors"
	"PersonaChain/internal/llm"
	"PersonaChain/internal/notify"
	"PersonaChain/internal/tool"
	"PersonaChain/internal/web3/ethereum"
)

// defaultNFTViewerBase 是铸造结果链接的默认前缀。
const defaultNFTViewerBase = "https://opensea.io/assets"

// CreateNFTTool 将存储里的图片铸造成 NFT：固定图片、并发固定两份元数据、
// 部署或复用集合合约、铸造并返回观看链接。固定期间向会话播报进度。
type CreateNFTTool struct {
	wallets    WalletService
	chains     ChainResolver
	pinner     Pinner
	assets     assets.Store
	sink       notify.Sink
	viewerBase string

	// 进度阶段在测试里会被压短。
	stages []notify.Stage
}

func NewCreateNFTTool(wallets WalletService, chains ChainResolver, pinner Pinner, store assets.Store, sink notify.Sink) *CreateNFTTool {
	return &CreateNFTTool{
		wallets:    wallets,
		chains:     chains,
		pinner:     pinner,
		assets:     store,
		sink:       notify.BestEffort(sink),
		viewerBase: defaultNFTViewerBase,
		stages: []notify.Stage{
			{After: 10 * time.Second, Text: "Pinning your masterpiece to the permaweb. The permaweb is taking its sweet time."},
			{After: 20 * time.Second, Text: "Still pinning. Decentralization was never famous for speed."},
		},
	}
}

func (t *CreateNFTTool) Name() string { return "create_nft" }

func (t *CreateNFTTool) Spec() llm.ToolSpec {
	return spec("create_nft",
		"Mint a stored image as an NFT. Pins the asset and its metadata, deploys a collection when none is given, and returns a viewer link.",
		`{"type":"object","properties":{"asset":{"type":"string","description":"name of a previously stored image"},"name":{"type":"string","description":"NFT title"},"description":{"type":"string"},"contract":{"type":"string","description":"existing collection address, a new collection is deployed when omitted"},"chain":{"type":"string"}},"required":["asset","name"]}`)
}

func (t *CreateNFTTool) Invoke(ctx context.Context, input tool.Input) (any, error) {
	var args struct {
		Asset       string `json:"asset"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Contract    string `json:"contract"`
		Chain       string `json:"chain"`
	}
	if err := decodeArgs(input.Args, &args); err != nil {
		return nil, err
	}
	if args.Asset == "" || args.Name == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "asset 与 name 不能为空")
	}

	asset, err := t.assets.Get(ctx, args.Asset)
	if err != nil {
		return nil, err
	}
	record, _, err := t.wallets.EnsureWallet(ctx, input.Owner, input.Persona)
	if err != nil {
		return nil, err
	}
	client, err := t.chains(args.Chain)
	if err != nil {
		return nil, err
	}
	owner, err := parseAddress(record.Address, "钱包地址")
	if err != nil {
		return nil, err
	}

	progress := notify.StartProgress(ctx, t.sink, input.SessionID, input.Persona, t.stages)
	imageURI, err := t.pinner.PinFile(ctx, asset.Name, asset.Data)
	if err != nil {
		progress.Stop()
		return nil, err
	}

	// 集合元数据与 token 元数据互不依赖，并发固定。
	var contractMetaURI, tokenMetaURI string
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		uri, err := t.pinner.PinJSON(groupCtx, map[string]any{
			"name":        args.Name,
			"description": args.Description,
			"image":       imageURI,
		})
		if err == nil {
			contractMetaURI = uri
		}
		return err
	})
	group.Go(func() error {
		uri, err := t.pinner.PinJSON(groupCtx, map[string]any{
			"name":        args.Name,
			"description": args.Description,
			"image":       imageURI,
			"attributes":  []any{},
		})
		if err == nil {
			tokenMetaURI = uri
		}
		return err
	})
	err = group.Wait()
	progress.Stop()
	if err != nil {
		return nil, err
	}

	contract := args.Contract
	if contract == "" {
		deployment, err := client.DeployERC721(ctx, record.PrivateKey, args.Name, "PCNFT")
		if err != nil {
			return nil, err
		}
		if _, err := client.WaitForReceipt(ctx, deployment.Transaction.Hash(), fundedConfirmations); err != nil {
			return nil, err
		}
		contract = deployment.ContractAddress.Hex()
	}
	contractAddr, err := parseAddress(contract, "contract")
	if err != nil {
		return nil, err
	}

	mintTx, err := client.MintNFT(ctx, record.PrivateKey, contractAddr, owner, tokenMetaURI)
	if err != nil {
		return nil, err
	}
	receipt, err := client.WaitForReceipt(ctx, mintTx, fundedConfirmations)
	if err != nil {
		return nil, err
	}

	viewerURL := fmt.Sprintf("%s/%s/%s", t.viewerBase, client.Name(), contract)
	tokenID := ""
	if id, ok := ethereum.MintedTokenID(receipt); ok {
		tokenID = id.String()
		viewerURL = fmt.Sprintf("%s/%s", viewerURL, tokenID)
	}

	_ = t.sink.GodEvent(ctx, input.SessionID, notify.NewEvent(input.Owner, input.Persona,
		"nft_minted", map[string]string{
			"contract":   contract,
			"token_id":   tokenID,
			"tx_hash":    mintTx.Hex(),
			"viewer_url": viewerURL,
		}))

	return map[string]any{
		"contract_address":  contract,
		"token_id":          tokenID,
		"tx_hash":           mintTx.Hex(),
		"image_uri":         imageURI,
		"token_metadata":    tokenMetaURI,
		"contract_metadata": contractMetaURI,
		"viewer_url":        viewerURL,
	}, nil
}

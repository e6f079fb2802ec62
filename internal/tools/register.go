package tools

import (
	"PersonaChain/internal/assets"
	"PersonaChain/internal/llm"
	"PersonaChain/internal/notify"
	"PersonaChain/internal/tool"
)

// Deps 汇集工具需要的外部能力。可选能力为 nil 时对应的工具不注册。
type Deps struct {
	Wallets  WalletService
	Chains   ChainResolver
	Sink     notify.Sink
	Pinner   Pinner
	Assets   assets.Store
	Twitter  TwitterClient
	Images   llm.ImageGenerator
	Verifier ContractVerifier
	Grok     llm.Client

	ImageModel    string
	TwitterUserID string
	PrimaryChain  string
	GrokModel     string
}

// RegisterAll 按依赖可用性把工具注册进调度引擎的注册表。
func RegisterAll(registry *tool.Registry, deps Deps) error {
	var handlers []tool.Handler

	if deps.Wallets != nil {
		handlers = append(handlers,
			NewCreateWalletTool(deps.Wallets, deps.Sink),
			NewGetWalletTool(deps.Wallets),
			NewRequestFundsTool(deps.Wallets, deps.Sink),
		)
		if deps.Chains != nil {
			handlers = append(handlers,
				NewGetETHBalanceTool(deps.Wallets, deps.Chains),
				NewGetTokenBalanceTool(deps.Wallets, deps.Chains),
				NewTransferETHTool(deps.Wallets, deps.Chains, deps.Sink),
				NewTransferTokenTool(deps.Wallets, deps.Chains, deps.Sink),
				NewExecuteTradeTool(deps.Wallets, deps.Chains, deps.Sink),
				NewCreatePoolTool(deps.Wallets, deps.Chains, deps.Sink),
				NewManageBasenameTool(deps.Wallets, deps.Chains, deps.Sink),
				NewDeployContractTool(deps.Wallets, deps.Chains, deps.Verifier, deps.Sink, deps.PrimaryChain),
			)
		}
	}
	if deps.Chains != nil {
		handlers = append(handlers, NewGetCandlesTool(deps.Chains))
	}
	if deps.Wallets != nil && deps.Chains != nil && deps.Pinner != nil && deps.Assets != nil {
		handlers = append(handlers,
			NewCreateNFTTool(deps.Wallets, deps.Chains, deps.Pinner, deps.Assets, deps.Sink))
	}
	if deps.Twitter != nil {
		handlers = append(handlers,
			NewCreateTweetTool(deps.Twitter, deps.Sink),
			NewGetTweetsTool(deps.Twitter, deps.TwitterUserID),
		)
	}
	if deps.Images != nil && deps.Assets != nil {
		handlers = append(handlers,
			NewCreateImageTool(deps.Images, deps.Assets, deps.Sink, deps.ImageModel))
	}
	if deps.Grok != nil {
		handlers = append(handlers,
			NewGetGrokInformationTool(deps.Grok, deps.Sink, deps.GrokModel))
	}

	for _, handler := range handlers {
		if err := registry.Register(handler); err != nil {
			return err
		}
	}
	return nil
}

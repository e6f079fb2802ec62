package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"PersonaChain/internal/assets"
	xerrors "PersonaChain/internal/errors"
	"PersonaChain/internal/llm"
	"PersonaChain/internal/notify"
	"PersonaChain/internal/social"
	"PersonaChain/internal/tool"
)

// TwitterClient 是社交工具依赖的发布与读取面。
type TwitterClient interface {
	PostTweet(ctx context.Context, text string) (*social.Tweet, error)
	UserTweets(ctx context.Context, userID string, max int) ([]social.Tweet, error)
}

// CreateTweetTool 以人格身份发布推文。
type CreateTweetTool struct {
	twitter TwitterClient
	sink    notify.Sink
}

func NewCreateTweetTool(twitter TwitterClient, sink notify.Sink) *CreateTweetTool {
	return &CreateTweetTool{twitter: twitter, sink: notify.BestEffort(sink)}
}

func (t *CreateTweetTool) Name() string { return "create_tweet" }

func (t *CreateTweetTool) Spec() llm.ToolSpec {
	return spec("create_tweet",
		"Publish a tweet from the project account.",
		`{"type":"object","properties":{"text":{"type":"string","description":"tweet body, at most 280 characters"}},"required":["text"]}`)
}

func (t *CreateTweetTool) Invoke(ctx context.Context, input tool.Input) (any, error) {
	var args struct {
		Text string `json:"text"`
	}
	if err := decodeArgs(input.Args, &args); err != nil {
		return nil, err
	}
	tweet, err := t.twitter.PostTweet(ctx, args.Text)
	if err != nil {
		return nil, err
	}
	_ = t.sink.GodEvent(ctx, input.SessionID, notify.NewEvent(input.Owner, input.Persona,
		"tweet_posted", map[string]string{"tweet_id": tweet.ID}))
	return map[string]any{
		"tweet_id": tweet.ID,
		"text":     tweet.Text,
	}, nil
}

// GetTweetsTool 读取项目账号最近的推文。
type GetTweetsTool struct {
	twitter       TwitterClient
	defaultUserID string
}

func NewGetTweetsTool(twitter TwitterClient, defaultUserID string) *GetTweetsTool {
	return &GetTweetsTool{twitter: twitter, defaultUserID: defaultUserID}
}

func (t *GetTweetsTool) Name() string { return "get_tweets" }

func (t *GetTweetsTool) Spec() llm.ToolSpec {
	return spec("get_tweets",
		"Fetch recent tweets from the project account.",
		`{"type":"object","properties":{"user_id":{"type":"string","description":"numeric user id, defaults to the project account"},"max":{"type":"integer"}}}`)
}

func (t *GetTweetsTool) Invoke(ctx context.Context, input tool.Input) (any, error) {
	var args struct {
		UserID string `json:"user_id"`
		Max    int    `json:"max"`
	}
	if err := decodeArgs(input.Args, &args); err != nil {
		return nil, err
	}
	userID := strings.TrimSpace(args.UserID)
	if userID == "" {
		userID = t.defaultUserID
	}
	if userID == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "未配置默认推特账号")
	}
	tweets, err := t.twitter.UserTweets(ctx, userID, args.Max)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"user_id": userID,
		"tweets":  tweets,
	}, nil
}

// CreateImageTool 调用图片模型生成图片并写入媒体存储，
// 返回可访问的 URL 并把它同时推给会话。
type CreateImageTool struct {
	images llm.ImageGenerator
	assets assets.Store
	sink   notify.Sink
	model  string
}

func NewCreateImageTool(images llm.ImageGenerator, store assets.Store, sink notify.Sink, model string) *CreateImageTool {
	return &CreateImageTool{
		images: images,
		assets: store,
		sink:   notify.BestEffort(sink),
		model:  model,
	}
}

func (t *CreateImageTool) Name() string { return "create_image" }

func (t *CreateImageTool) Spec() llm.ToolSpec {
	return spec("create_image",
		"Generate an image from a text prompt and store it. Returns the stored image name and URL, usable later with create_nft.",
		`{"type":"object","properties":{"prompt":{"type":"string"},"name":{"type":"string","description":"storage name, generated when omitted"}},"required":["prompt"]}`)
}

func (t *CreateImageTool) Invoke(ctx context.Context, input tool.Input) (any, error) {
	var args struct {
		Prompt string `json:"prompt"`
		Name   string `json:"name"`
	}
	if err := decodeArgs(input.Args, &args); err != nil {
		return nil, err
	}
	if strings.TrimSpace(args.Prompt) == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "图片描述不能为空")
	}

	result, err := t.images.GenerateImage(ctx, llm.ImageRequest{
		Model:  t.model,
		Prompt: args.Prompt,
		Size:   "1024x1024",
	})
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(args.Name)
	if name == "" {
		name = fmt.Sprintf("%s.png", uuid.NewString())
	}
	url, err := t.assets.Put(ctx, name, "image/png", result.Data)
	if err != nil {
		return nil, err
	}

	_ = t.sink.GodEvent(ctx, input.SessionID, notify.NewEvent(input.Owner, input.Persona,
		"image_created", map[string]string{"name": name, "url": url}))
	_ = t.sink.CharacterMessage(ctx, input.SessionID, input.Persona, url)

	return map[string]any{
		"name": name,
		"url":  url,
	}, nil
}

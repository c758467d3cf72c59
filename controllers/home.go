package controllers

import (
	"context"

	"github.com/Desarso/babyzen/models"
)

// QuickAction is a shortcut card leading to a feature.
type QuickAction struct {
	Route       models.Route `json:"route"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
}

// Tip is the daily knowledge card.
type Tip struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type HomeSnapshot struct {
	Greeting     string        `json:"greeting"`
	Prompt       string        `json:"prompt"`
	QuickActions []QuickAction `json:"quick_actions"`
	TipHeading   string        `json:"tip_heading"`
	Tip          Tip           `json:"tip"`
}

// HomeView is the static landing screen.
type HomeView struct {
	renderer Renderer
}

func NewHomeView(deps Deps) *HomeView {
	return &HomeView{renderer: deps.withDefaults().Renderer}
}

func (h *HomeView) Route() models.Route { return models.RouteHome }

func (h *HomeView) Mount(context.Context) {
	h.renderer.Render(models.RouteHome, h.Snapshot())
}

func (h *HomeView) Unmount() {}

func (h *HomeView) Snapshot() any {
	return HomeSnapshot{
		Greeting: "早安，媽媽",
		Prompt:   "今天需要幫忙嗎？",
		QuickActions: []QuickAction{
			{Route: models.RouteCryAnalyzer, Title: "寶寶在哭鬧？", Description: "AI 分析哭聲原因並提供安撫建議"},
			{Route: models.RouteFoodLens, Title: "可以吃這個嗎？", Description: "拍下食物，檢查是否適合寶寶"},
		},
		TipHeading: "每日小知識",
		Tip: Tip{
			Title: "3-4個月發展里程碑",
			Body:  "這個階段的寶寶脖子變硬了，俯臥時可以抬頭90度。他們也開始會吃手手，這是自我安撫和探索世界的重要方式喔！",
		},
	}
}

package model_test

import (
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/goldenoak/threadline/pkg/domain/model"
)

func TestInteractionPreview(t *testing.T) {
	t.Run("latest user message wins", func(t *testing.T) {
		x := &model.Interaction{
			Messages: []model.Message{
				{Role: model.RoleUser, Content: "first"},
				{Role: model.RoleAssistant, Content: "reply"},
				{Role: model.RoleUser, Content: "second"},
				{Role: model.RoleAssistant, Content: "closing reply"},
			},
		}

		gt.Value(t, x.Preview(140)).Equal("second")
	})

	t.Run("falls back to the last message of any role", func(t *testing.T) {
		x := &model.Interaction{
			Messages: []model.Message{
				{Role: model.RoleSystem, Content: "session opened"},
				{Role: model.RoleAssistant, Content: "welcome to the shop"},
			},
		}

		gt.Value(t, x.Preview(140)).Equal("welcome to the shop")
	})

	t.Run("whitespace is collapsed", func(t *testing.T) {
		x := &model.Interaction{
			Messages: []model.Message{
				{Role: model.RoleUser, Content: "  hello\n\tthere   friend  "},
			},
		}

		gt.Value(t, x.Preview(140)).Equal("hello there friend")
	})

	t.Run("long content is truncated with an ellipsis", func(t *testing.T) {
		x := &model.Interaction{
			Messages: []model.Message{
				{Role: model.RoleUser, Content: strings.Repeat("a", 200)},
			},
		}

		got := x.Preview(140)
		gt.Value(t, len([]rune(got))).Equal(140)
		gt.Bool(t, strings.HasSuffix(got, "…")).True()
	})

	t.Run("truncation counts runes, not bytes", func(t *testing.T) {
		x := &model.Interaction{
			Messages: []model.Message{
				{Role: model.RoleUser, Content: strings.Repeat("金", 10)},
			},
		}

		got := x.Preview(5)
		gt.Value(t, []rune(got)).Equal([]rune("金金金金…"))
	})

	t.Run("no messages yields empty preview", func(t *testing.T) {
		x := &model.Interaction{}
		gt.Value(t, x.Preview(140)).Equal("")
	})
}

func TestInteractionTranscriptForClassification(t *testing.T) {
	x := &model.Interaction{
		Messages: []model.Message{
			{Role: model.RoleUser, Content: "is my ring worth anything"},
			{Role: model.RoleAssistant, Content: "would you like to schedule a visit?"},
			{Role: model.RoleSystem, Content: "customer uploaded a photo"},
		},
	}

	transcript := x.TranscriptForClassification()
	gt.Value(t, transcript).Equal("is my ring worth anything customer uploaded a photo")
}

func TestMessageIsUserAuthored(t *testing.T) {
	gt.Bool(t, model.Message{Role: model.RoleUser}.IsUserAuthored()).True()
	gt.Bool(t, model.Message{Role: model.RoleAssistant}.IsUserAuthored()).False()
	gt.Bool(t, model.Message{Role: model.RoleSystem}.IsUserAuthored()).False()
}

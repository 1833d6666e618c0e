package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaleevo/namtechpro-sub001/internal/model"
)

func visitorMsg(text string) *model.Message {
	return &model.Message{Sender: model.SenderVisitor, Text: text}
}

func TestBotScriptRadarKeyword(t *testing.T) {
	bot := NewBotScript()
	history := []*model.Message{visitorMsg("preciso de ajuda com radar")}

	reply := bot.Reply(history, "preciso de ajuda com radar")

	require.NotEmpty(t, reply.Text)
	assert.Equal(t, []string{"Sim", "Não"}, reply.Options)
	assert.False(t, reply.Escalate)
}

func TestBotScriptExplicitAgentRequestEscalates(t *testing.T) {
	bot := NewBotScript()

	for _, input := range []string{
		"quero falar com um atendente",
		"Falar com atendente",
		"tem algum humano ai?",
	} {
		reply := bot.Reply([]*model.Message{visitorMsg(input)}, input)
		assert.True(t, reply.Escalate, "input %q should escalate", input)
		assert.NotEmpty(t, reply.Text, "escalation must carry an explanatory reply")
	}
}

func TestBotScriptGreetsFirstMessage(t *testing.T) {
	bot := NewBotScript()
	history := []*model.Message{visitorMsg("oi")}

	reply := bot.Reply(history, "oi")

	assert.Contains(t, reply.Text, "assistente virtual")
	assert.Contains(t, reply.Options, "Falar com atendente")
}

func TestBotScriptFallbackAfterFirstMessage(t *testing.T) {
	bot := NewBotScript()
	history := []*model.Message{
		visitorMsg("oi"),
		{Sender: model.SenderBot, Text: "Olá!"},
		visitorMsg("xyzzy"),
	}

	reply := bot.Reply(history, "xyzzy")

	assert.Contains(t, reply.Text, "não entendi")
	assert.Equal(t, []string{"Falar com atendente"}, reply.Options)
}

func TestBotScriptAccentInsensitive(t *testing.T) {
	bot := NewBotScript()
	history := []*model.Message{visitorMsg("radar"), {Sender: model.SenderBot}, visitorMsg("NÃO")}

	withAccent := bot.Reply(history, "NÃO")
	withoutAccent := bot.Reply(history, "nao")

	assert.Equal(t, withAccent, withoutAccent)
}

func TestBotScriptDeterministic(t *testing.T) {
	bot := NewBotScript()
	history := []*model.Message{visitorMsg("quanto custa um medidor?")}

	first := bot.Reply(history, "quanto custa um medidor?")
	second := bot.Reply(history, "quanto custa um medidor?")

	assert.Equal(t, first, second)
}

package service

import (
	"strings"

	"github.com/vitaleevo/namtechpro-sub001/internal/model"
)

// BotReply is the scripted responder's output for one visitor turn.
type BotReply struct {
	Text     string
	Options  []string
	Escalate bool
}

// BotScript maps a visitor message to a canned reply plus optional
// quick-reply options. It is a pure function of the conversation history and
// the latest input: no store access, no randomness, so the same history and
// input always produce the same reply.
type BotScript struct{}

func NewBotScript() *BotScript {
	return &BotScript{}
}

// Quick-reply labels. Selecting an option sends its label back as the
// visitor's message text, so the rules below match on these exact labels too.
const (
	optionYes      = "Sim"
	optionNo       = "Não"
	optionAgent    = "Falar com atendente"
	optionProducts = "Conhecer os produtos"
	optionSupport  = "Suporte técnico"
)

// Reply decides the bot's turn. history is the session's full message log
// including the visitor message being answered.
func (b *BotScript) Reply(history []*model.Message, input string) BotReply {
	text := normalize(input)

	// Explicit request for a human always wins.
	if containsAny(text, "atendente", "humano", "pessoa de verdade", "falar com alguem") {
		return BotReply{
			Text:     "Certo! Vou encaminhar sua conversa para um de nossos atendentes. Aguarde um instante, por favor.",
			Escalate: true,
		}
	}

	switch {
	case containsAny(text, "radar", "medidor", "equipamento"):
		return BotReply{
			Text:    "Entendi, você precisa de ajuda com um equipamento de radar. Você já é cliente NamTech Pro?",
			Options: []string{optionYes, optionNo},
		}
	case text == normalize(optionYes):
		return BotReply{
			Text:    "Ótimo! Para suporte técnico posso te transferir para nossa equipe, ou você pode consultar os manuais no site.",
			Options: []string{optionSupport, optionAgent},
		}
	case text == normalize(optionNo) || text == normalize(optionProducts):
		return BotReply{
			Text:    "Temos medidores de velocidade fixos e portáteis homologados pelo INMETRO. Quer falar com nossa equipe comercial?",
			Options: []string{optionAgent, optionNo},
		}
	case text == normalize(optionSupport):
		return BotReply{
			Text:     "Vou te conectar com o suporte técnico. Um momento, por favor.",
			Escalate: true,
		}
	case containsAny(text, "preco", "orcamento", "valor", "quanto custa"):
		return BotReply{
			Text:    "Nossos orçamentos são feitos sob medida. Posso chamar alguém da equipe comercial para te atender agora?",
			Options: []string{optionYes + ", por favor", optionAgent},
		}
	case text == normalize(optionYes+", por favor"):
		return BotReply{
			Text:     "Perfeito, chamando a equipe comercial. Só um instante!",
			Escalate: true,
		}
	case containsAny(text, "horario", "funcionamento", "aberto"):
		return BotReply{
			Text:    "Nosso atendimento funciona de segunda a sexta, das 8h às 18h. Posso ajudar com mais alguma coisa?",
			Options: []string{optionProducts, optionAgent},
		}
	}

	if countVisitorMessages(history) <= 1 {
		return BotReply{
			Text:    "Olá! Sou o assistente virtual da NamTech Pro. Como posso ajudar?",
			Options: []string{optionProducts, optionSupport, optionAgent},
		}
	}

	return BotReply{
		Text:    "Desculpe, não entendi. Você pode reformular, ou falar direto com um atendente.",
		Options: []string{optionAgent},
	}
}

func countVisitorMessages(history []*model.Message) int {
	n := 0
	for _, m := range history {
		if m.Sender == model.SenderVisitor {
			n++
		}
	}
	return n
}

// normalize lowercases the input and strips the accented vowels and cedilla
// common in pt-BR, so "Não", "nao" and "NÃO" all match the same rule.
func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	replacer := strings.NewReplacer(
		"á", "a", "à", "a", "â", "a", "ã", "a",
		"é", "e", "ê", "e",
		"í", "i",
		"ó", "o", "ô", "o", "õ", "o",
		"ú", "u",
		"ç", "c",
	)
	return replacer.Replace(s)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

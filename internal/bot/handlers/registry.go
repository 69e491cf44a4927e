package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler represents a command or callback handler together with
// the information needed to register it.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// RegisterAllCommands initializes and returns a map of all bot commands and
// the callback query router, each configured with its middleware chain.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	handlers["/start"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "start",
		Handler:     NewStartHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
	}
	handlers["/help"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "help",
		Handler:     NewHelpHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
	}
	handlers["/subscribe"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "subscribe",
		Handler:     NewSubscribeHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
	}

	groupMiddleware := []tgbot.Middleware{GroupOnly(deps)}
	ownerMiddleware := []tgbot.Middleware{GroupOnly(deps), OwnerOnly(deps)}

	handlers["/summary"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "summary",
		Handler:     NewSummaryHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Middleware:  groupMiddleware,
	}

	handlers["/settings"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "settings",
		Handler:     NewSettingsHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Middleware:  ownerMiddleware,
	}
	handlers["/addpaid"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "addpaid",
		Handler:     NewAddPaidHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Middleware:  ownerMiddleware,
	}
	handlers["/removepaid"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "removepaid",
		Handler:     NewRemovePaidHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Middleware:  ownerMiddleware,
	}
	handlers["/paidlist"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "paidlist",
		Handler:     NewPaidListHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Middleware:  ownerMiddleware,
	}
	handlers["/clearlog"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "clearlog",
		Handler:     NewClearLogHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Middleware:  ownerMiddleware,
	}

	// All callback queries route through one handler; the data patterns
	// overlap too much for per-pattern registration.
	handlers["callbacks"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeCallbackQueryData,
		Pattern:     "",
		Handler:     NewCallbackHandler(deps),
		MatchType:   tgbot.MatchTypePrefix,
	}

	return handlers
}

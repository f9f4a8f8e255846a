package brandvoices

import "context"

type contextKey string

const voiceCtxKey contextKey = "brand_voice"

func SetVoiceInContext(ctx context.Context, v *Voice) context.Context {
	return context.WithValue(ctx, voiceCtxKey, v)
}

func GetVoiceFromContext(ctx context.Context) *Voice {
	v, _ := ctx.Value(voiceCtxKey).(*Voice)
	return v
}

// Package handler defines the building blocks of a route chain: the
// per-request Context, the Entry describing one callable, its declared
// Params and the Resolver contract that binds them to request values.
//
// A chain is an ordered list of entries. Every entry except the last is a
// filter: it returns true to let the request through or any other value to
// answer it directly.
//
//	auth := handler.Entry{
//		Params: []handler.Param{handler.Header("Authorization")},
//		Func: func(ctx *handler.Context, args handler.Args) (any, error) {
//			if args.String("Authorization") == "" {
//				return response.New(http.StatusUnauthorized, nil), nil
//			}
//			ctx.Set("user", "alice")
//			return true, nil
//		},
//	}
//
//	show := handler.Entry{
//		Params:   []handler.Param{handler.Path("id", pattern.Int)},
//		Produces: []string{"application/json"},
//		Func: func(ctx *handler.Context, args handler.Args) (any, error) {
//			user, _ := ctx.Get("user")
//			return map[string]any{"id": args.Int("id"), "by": user}, nil
//		},
//	}
//
// Parameter sources are fixed at registration, so the resolver does no
// reflection at request time. Query strings follow the convention that a
// key given without "=" is the boolean flag true.
package handler

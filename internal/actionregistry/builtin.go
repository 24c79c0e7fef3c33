package actionregistry

import "fmt"

// Builtin returns the demo action catalog used by a gateway that has not
// been configured with its own action set: a low-trust read action and a
// high-trust write action, mirroring the worked examples of spec.md §7.1.
// A production gateway is expected to build its own []Action from its own
// handlers; Builtin exists so `cmd/gateway` has something to serve out of
// the box.
func Builtin() []Action {
	return []Action{
		{
			Name:        "search",
			Description: "Search a read-only catalog by query string.",
			MinScore:    30,
			Parameters: map[string]ParamSpec{
				"query": {Type: TypeString, Required: true, Description: "search text"},
			},
			Handler: func(_ AgentContext, params map[string]any) (any, error) {
				query, _ := params["query"].(string)
				return []string{query}, nil
			},
		},
		{
			Name:        "order",
			Description: "Place an order against the catalog. Requires elevated trust.",
			MinScore:    60,
			Parameters: map[string]ParamSpec{
				"itemId":   {Type: TypeString, Required: true, Description: "catalog item id"},
				"quantity": {Type: TypeNumber, Required: false, Description: "units to order, defaults to 1"},
			},
			Handler: func(agentCtx AgentContext, params map[string]any) (any, error) {
				itemID, ok := params["itemId"].(string)
				if !ok || itemID == "" {
					return nil, fmt.Errorf("itemId is required")
				}
				return map[string]any{
					"orderId": agentCtx.AgentID + ":" + itemID,
					"status":  "placed",
				}, nil
			},
		},
	}
}

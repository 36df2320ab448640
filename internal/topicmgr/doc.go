// Package topicmgr keeps the catalogue of pub/sub topics used by the relay.
//
// Topics are declared once as package-level values, either by framework code
// (the websocket bridge) or by a feature module (chat):
//
//	var TopicInbound = topicmgr.DefineFramework(topicmgr.TopicConfig{
//		Name:        "ws.client.inbound",
//		Description: "Whitelisted frames received from a client",
//		Pattern:     "ws.client.inbound",
//	})
//
// and registered with a Manager so tools such as parlor-cli can list and
// inspect them:
//
//	manager := topicmgr.Default()
//	if err := manager.Register(TopicInbound); err != nil {
//		log.Fatal(err)
//	}
package topicmgr

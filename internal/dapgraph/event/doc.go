// Package event is a small topic-based publish/subscribe bus used as a
// decoupled projection of graph mutations: a host application can
// subscribe to session lifecycle, output and breakpoint-hit topics
// without installing a query.Watch over the entity graph itself.
//
// Subscriptions match topics with the same glob syntax query's filter
// layer uses ("dapgraph.session.*" matches both
// "dapgraph.session.started" and "dapgraph.session.stopped"), via
// tidwall/match rather than a bespoke trie, since the bus handles a
// handful of topics rather than the high-cardinality routing table a
// trie earns its keep on.
package event

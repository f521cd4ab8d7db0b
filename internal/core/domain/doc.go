// Package domain holds the values that flow through a split: the converted
// Document, its Chunks, the TopicProposals a detector makes for each chunk,
// the Topics cut from them, the Links between topics and the RunReport
// that records what degraded along the way.
//
// It imports the standard library only.
package domain

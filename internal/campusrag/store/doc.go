// Package store 提供 campus-rag 的数据存储层。
//
// 该包定义知识库、查询分析与 FAQ 三类存储的接口抽象，
// 以及基于 Milvus/Zilliz、Azure AI Search 与 MongoDB 的具体实现。
package store

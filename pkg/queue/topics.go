package queue

// 主题命名：document.<动作>，消费者可按前缀 document. 订阅全部文档事件.
const (
	TopicDocumentIngested         = "document.ingested"          // 新文档入库（上传、Webhook、桶扫描）
	TopicDocumentClassified       = "document.classified"        // 分类成功，进入待审核
	TopicDocumentClassifyFailed   = "document.classify_failed"   // 所有提供方失败，保持 uploaded
	TopicDocumentArchived         = "document.archived"          // 审核通过
	TopicDocumentDeleted          = "document.deleted"           // 软删除
	TopicDocumentPurged           = "document.purged"            // 清理任务硬删除
	TopicDocumentRelocationFailed = "document.relocation_failed" // 对象迁移失败，路径滞后于状态
)

// DocumentTopics 全部文档主题，供 events tail 订阅.
var DocumentTopics = []string{
	TopicDocumentIngested,
	TopicDocumentClassified,
	TopicDocumentClassifyFailed,
	TopicDocumentArchived,
	TopicDocumentDeleted,
	TopicDocumentPurged,
	TopicDocumentRelocationFailed,
}

package types

// UploadResponse 上传结果. Status 为 created 或 exists（内容与已有文档相同）.
type UploadResponse struct {
	Status   string `json:"status"`
	ID       string `json:"id"`
	FilePath string `json:"file_path,omitempty"`
}

// WebhookRequest 邮件入库 webhook 请求，字段名沿用上游自动化工具的驼峰写法.
type WebhookRequest struct {
	ID                 string            `json:"id"                           rule:"required,max=64,docid"`
	Filename           string            `json:"filename"                     rule:"required,max=512"`
	FilePath           string            `json:"filePath"                     rule:"required,max=1024,objectkey"`
	FileSize           int64             `json:"fileSize"                     rule:"min=0"`
	Source             string            `json:"source"                       rule:"omitempty,oneof=email upload bucket-scan"`
	SourceEmailFrom    string            `json:"sourceEmailFrom,omitempty"    rule:"max=512"`
	SourceEmailSubject string            `json:"sourceEmailSubject,omitempty" rule:"max=1024"`
	EmailHeaders       map[string]string `json:"emailHeaders,omitempty"`
}

// WebhookResponse webhook 结果. Status: created / already_exists / duplicate.
type WebhookResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

// ScanItem 桶扫描中单个对象的结果. Status: created / exists / error.
type ScanItem struct {
	Key    string `json:"key"`
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ScanResponse 桶扫描结果.
type ScanResponse struct {
	DryRun  bool       `json:"dry_run"`
	Results []ScanItem `json:"results"`
	Created int        `json:"created"`
	Exists  int        `json:"exists"`
	Errors  int        `json:"errors"`
	Total   int        `json:"total"`
}

// CleanupItem 清理候选.
type CleanupItem struct {
	ID          string `json:"id"`
	FilePath    string `json:"file_path"`
	DeletedAt   string `json:"deleted_at,omitempty"`
	ObjectError string `json:"object_error,omitempty"`
}

// CleanupResponse 清理结果.
type CleanupResponse struct {
	DryRun     bool          `json:"dry_run"`
	Candidates []CleanupItem `json:"candidates"`
	Purged     int           `json:"purged"`
	Total      int           `json:"total"`
}

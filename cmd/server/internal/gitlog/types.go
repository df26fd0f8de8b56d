package gitlog

// ChangeRecord 一次提交的聚合变更记录
// 由 Analyzer 产出后不再修改
type ChangeRecord struct {
	Hash       string   `json:"hash"`
	Message    string   `json:"message"` // 提交信息首行
	Files      int      `json:"files"`
	Insertions int      `json:"insertions"`
	Deletions  int      `json:"deletions"`
	FilePaths  []string `json:"file_paths,omitempty"`
}

// 输出流中的结构化分隔符
// 0x01 标记一条提交记录的开始，0x02 分隔提交头字段
// 不可打印字符避免与提交信息中的普通标点混淆
const (
	commitSep = "\x01"
	fieldSep  = "\x02"
)

// prettyFormat 两次遍历共用的提交头格式: hash/author/date/subject
const prettyFormat = "--pretty=format:" + commitSep + "%H" + fieldSep + "%an" + fieldSep + "%ad" + fieldSep + "%s"

package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// fakeToolClient 内存版远端存储，实现 ToolClient 供同步引擎测试
// 行为模拟真实工具面：按属性过滤查询、创建/更新页面、分页列出子块、
// 追加/删除子块、创建子数据库
type fakeToolClient struct {
	pages     map[string]*fakePage
	databases map[string]*fakeDatabase
	calls     []string // 工具调用顺序
	pageSize  int      // 子块分页大小，0 表示不分页
	seq       int
	connected bool
	failTool  string // 指定工具名时该工具调用返回错误
}

type fakePage struct {
	id       string
	parentDB string
	props    map[string]interface{}
	children []map[string]interface{}
}

type fakeDatabase struct {
	id         string
	title      string
	parentPage string
}

func newFakeToolClient() *fakeToolClient {
	return &fakeToolClient{
		pages:     make(map[string]*fakePage),
		databases: make(map[string]*fakeDatabase),
	}
}

func (f *fakeToolClient) Connect(ctx context.Context) error {
	f.connected = true
	return nil
}

func (f *fakeToolClient) Close() error {
	f.connected = false
	return nil
}

func (f *fakeToolClient) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%03d", prefix, f.seq)
}

// addDatabase 预置一个数据库
func (f *fakeToolClient) addDatabase(id, title string) {
	f.databases[id] = &fakeDatabase{id: id, title: title}
}

// addPage 预置一个页面并返回 id
func (f *fakeToolClient) addPage(dbID string, props map[string]interface{}, children ...map[string]interface{}) string {
	id := f.nextID("page")
	for _, c := range children {
		if c["id"] == nil {
			c["id"] = f.nextID("block")
		}
	}
	f.pages[id] = &fakePage{id: id, parentDB: dbID, props: props, children: children}
	return id
}

func titleProp(name, text string) map[string]interface{} {
	return map[string]interface{}{
		name: map[string]interface{}{
			"type":  "title",
			"title": []map[string]interface{}{{"type": "text", "text": map[string]interface{}{"content": text}, "plain_text": text}},
		},
	}
}

func (f *fakeToolClient) CallTool(ctx context.Context, name string, args map[string]interface{}) (json.RawMessage, error) {
	f.calls = append(f.calls, name)
	if !f.connected {
		return nil, fmt.Errorf("fake: not connected")
	}
	if f.failTool != "" && name == f.failTool {
		return nil, fmt.Errorf("fake: tool %s failed", name)
	}

	switch name {
	case toolQueryDatabase:
		return f.queryDatabase(args)
	case toolCreatePage:
		return f.createPage(args)
	case toolUpdatePage:
		return f.updatePage(args)
	case toolBlockChildren:
		return f.blockChildren(args)
	case toolAppendChildren:
		return f.appendChildren(args)
	case toolDeleteBlock:
		return f.deleteBlock(args)
	case toolCreateDatabase:
		return f.createDatabase(args)
	default:
		return nil, fmt.Errorf("fake: unknown tool %s", name)
	}
}

func (f *fakeToolClient) queryDatabase(args map[string]interface{}) (json.RawMessage, error) {
	dbID, _ := args["database_id"].(string)
	if _, ok := f.databases[dbID]; !ok {
		return nil, fmt.Errorf("fake: database %s not found", dbID)
	}

	var matched []*fakePage
	for _, p := range f.pages {
		if p.parentDB != dbID {
			continue
		}
		if matchFilter(p, args["filter"]) {
			matched = append(matched, p)
		}
	}

	sortProp := ""
	if sorts, ok := args["sorts"].([]map[string]interface{}); ok && len(sorts) > 0 {
		sortProp, _ = sorts[0]["property"].(string)
	}
	sort.Slice(matched, func(i, j int) bool {
		if sortProp != "" {
			di, dj := pageDate(matched[i], sortProp), pageDate(matched[j], sortProp)
			if di != dj {
				return di < dj
			}
		}
		return matched[i].id < matched[j].id
	})

	results := make([]map[string]interface{}, 0, len(matched))
	for _, p := range matched {
		results = append(results, pageJSON(p))
	}
	return marshal(map[string]interface{}{"results": results, "has_more": false})
}

// matchFilter 支持 title equals、date equals、and[on_or_after, on_or_before]
func matchFilter(p *fakePage, filter interface{}) bool {
	f, ok := filter.(map[string]interface{})
	if !ok || f == nil {
		return true
	}

	if and, ok := f["and"].([]map[string]interface{}); ok {
		for _, sub := range and {
			if !matchFilter(p, sub) {
				return false
			}
		}
		return true
	}

	prop, _ := f["property"].(string)
	if cond, ok := f["title"].(map[string]interface{}); ok {
		return pageTitle(p, prop) == cond["equals"]
	}
	if cond, ok := f["date"].(map[string]interface{}); ok {
		date := pageDate(p, prop)
		if eq, ok := cond["equals"].(string); ok {
			return date == eq
		}
		if after, ok := cond["on_or_after"].(string); ok {
			return date >= after
		}
		if before, ok := cond["on_or_before"].(string); ok {
			return date <= before
		}
	}
	return false
}

func pageTitle(p *fakePage, prop string) string {
	v, ok := p.props[prop].(map[string]interface{})
	if !ok {
		return ""
	}
	items, ok := v["title"].([]map[string]interface{})
	if !ok {
		return ""
	}
	var sb strings.Builder
	for _, item := range items {
		if text, ok := item["text"].(map[string]interface{}); ok {
			sb.WriteString(text["content"].(string))
		}
	}
	return sb.String()
}

func pageDate(p *fakePage, prop string) string {
	v, ok := p.props[prop].(map[string]interface{})
	if !ok {
		return ""
	}
	d, ok := v["date"].(map[string]interface{})
	if !ok {
		return ""
	}
	start, _ := d["start"].(string)
	return start
}

func (f *fakeToolClient) createPage(args map[string]interface{}) (json.RawMessage, error) {
	parent, _ := args["parent"].(map[string]interface{})
	dbID, _ := parent["database_id"].(string)
	if _, ok := f.databases[dbID]; !ok {
		return nil, fmt.Errorf("fake: parent database %s not found", dbID)
	}

	props, err := normalizeProps(args["properties"])
	if err != nil {
		return nil, err
	}

	page := &fakePage{id: f.nextID("page"), parentDB: dbID, props: props}
	if children, ok := args["children"]; ok {
		blocks, err := toRawBlocks(children)
		if err != nil {
			return nil, err
		}
		if len(blocks) > appendBatchSize {
			return nil, fmt.Errorf("fake: children exceeds %d per call", appendBatchSize)
		}
		for _, b := range blocks {
			b["id"] = f.nextID("block")
			page.children = append(page.children, b)
		}
	}
	f.pages[page.id] = page
	return marshal(pageJSON(page))
}

func (f *fakeToolClient) updatePage(args map[string]interface{}) (json.RawMessage, error) {
	pageID, _ := args["page_id"].(string)
	page, ok := f.pages[pageID]
	if !ok {
		return nil, fmt.Errorf("fake: page %s not found", pageID)
	}

	props, err := normalizeProps(args["properties"])
	if err != nil {
		return nil, err
	}
	for k, v := range props {
		page.props[k] = v
	}
	return marshal(pageJSON(page))
}

func (f *fakeToolClient) blockChildren(args map[string]interface{}) (json.RawMessage, error) {
	blockID, _ := args["block_id"].(string)
	page, ok := f.pages[blockID]
	if !ok {
		return nil, fmt.Errorf("fake: block %s not found", blockID)
	}

	start := 0
	if cursor, ok := args["start_cursor"].(string); ok {
		start, _ = strconv.Atoi(cursor)
	}

	end := len(page.children)
	hasMore := false
	next := ""
	if f.pageSize > 0 && start+f.pageSize < len(page.children) {
		end = start + f.pageSize
		hasMore = true
		next = strconv.Itoa(end)
	}

	return marshal(map[string]interface{}{
		"results":     page.children[start:end],
		"has_more":    hasMore,
		"next_cursor": next,
	})
}

func (f *fakeToolClient) appendChildren(args map[string]interface{}) (json.RawMessage, error) {
	blockID, _ := args["block_id"].(string)
	page, ok := f.pages[blockID]
	if !ok {
		return nil, fmt.Errorf("fake: block %s not found", blockID)
	}

	blocks, err := toRawBlocks(args["children"])
	if err != nil {
		return nil, err
	}
	if len(blocks) > appendBatchSize {
		return nil, fmt.Errorf("fake: children exceeds %d per call", appendBatchSize)
	}
	for _, b := range blocks {
		b["id"] = f.nextID("block")
		page.children = append(page.children, b)
	}
	return marshal(map[string]interface{}{"results": blocks})
}

func (f *fakeToolClient) deleteBlock(args map[string]interface{}) (json.RawMessage, error) {
	blockID, _ := args["block_id"].(string)
	for _, page := range f.pages {
		for i, b := range page.children {
			if b["id"] == blockID {
				page.children = append(page.children[:i], page.children[i+1:]...)
				return marshal(map[string]interface{}{"id": blockID, "archived": true})
			}
		}
	}
	return nil, fmt.Errorf("fake: block %s not found", blockID)
}

func (f *fakeToolClient) createDatabase(args map[string]interface{}) (json.RawMessage, error) {
	parent, _ := args["parent"].(map[string]interface{})
	pageID, _ := parent["page_id"].(string)
	page, ok := f.pages[pageID]
	if !ok {
		return nil, fmt.Errorf("fake: parent page %s not found", pageID)
	}

	title := ""
	if items, ok := args["title"].([]map[string]interface{}); ok && len(items) > 0 {
		if text, ok := items[0]["text"].(map[string]interface{}); ok {
			title, _ = text["content"].(string)
		}
	}

	db := &fakeDatabase{id: f.nextID("db"), title: title, parentPage: pageID}
	f.databases[db.id] = db

	// 子数据库同时作为父页面的一个子块出现
	page.children = append(page.children, map[string]interface{}{
		"id":             f.nextID("block"),
		"type":           "child_database",
		"child_database": map[string]interface{}{"title": title},
	})

	return marshal(map[string]interface{}{"id": db.id, "title": args["title"]})
}

func pageJSON(p *fakePage) map[string]interface{} {
	return map[string]interface{}{
		"id":         p.id,
		"url":        "https://notion.example.com/" + p.id,
		"properties": p.props,
	}
}

// normalizeProps 经 JSON 往返把任意属性载荷统一为 map 形式
func normalizeProps(v interface{}) (map[string]interface{}, error) {
	if v == nil {
		return map[string]interface{}{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var props map[string]interface{}
	if err := json.Unmarshal(data, &props); err != nil {
		return nil, err
	}
	// title 属性恢复为便于比较的形式
	out := make(map[string]interface{}, len(props))
	for k, raw := range props {
		m, ok := raw.(map[string]interface{})
		if !ok {
			out[k] = raw
			continue
		}
		if items, ok := m["title"].([]interface{}); ok {
			converted := make([]map[string]interface{}, 0, len(items))
			for _, item := range items {
				if im, ok := item.(map[string]interface{}); ok {
					converted = append(converted, im)
				}
			}
			m["title"] = converted
		}
		out[k] = m
	}
	return out, nil
}

func toRawBlocks(v interface{}) ([]map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var blocks []map[string]interface{}
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

func marshal(v interface{}) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

package meta

import (
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ReadSidecarDescription 从 XMP sidecar 里读取 dc:description 的文本。
//
// XMP 名义上是 RDF/XML，但实际文件出自各种编辑器，写法并不统一：
// 有 <dc:description><rdf:Alt><rdf:li>…</rdf:li> 的列表形式，也有
// <rdf:Description dc:description="…"/> 的属性形式。这里用宽松的 HTML
// 解析器读取（标签/属性名已被统一转为小写），按后缀匹配命名空间前缀。
func ReadSidecarDescription(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return "", err
	}

	var desc string
	doc.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name := goquery.NodeName(s)

		// rdf:Description 是容器节点，不是字段；但它可能以属性形式携带描述。
		if name == "rdf:description" {
			if v, ok := attrWithSuffix(s, ":description"); ok && strings.TrimSpace(v) != "" {
				desc = strings.TrimSpace(v)
				return false
			}
			return true
		}

		if name != "description" && !strings.HasSuffix(name, ":description") {
			return true
		}
		// 列表形式：取元素的全部文本（覆盖 rdf:Alt/rdf:li 嵌套与纯文本两种写法）。
		if v := strings.TrimSpace(s.Text()); v != "" {
			desc = v
			return false
		}
		return true
	})
	return desc, nil
}

func attrWithSuffix(s *goquery.Selection, suffix string) (string, bool) {
	if len(s.Nodes) == 0 {
		return "", false
	}
	for _, a := range s.Nodes[0].Attr {
		if strings.HasSuffix(strings.ToLower(a.Key), suffix) {
			return a.Val, true
		}
	}
	return "", false
}

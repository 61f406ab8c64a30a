package backendtest

import "library-search/library"

// SampleCatalog returns a small record set mixing both wire formats: records
// with a holdings list, one flat single-copy record, and one with no copy
// information at all.
func SampleCatalog() []library.SearchResult {
	return []library.SearchResult{
		{
			Title:     "Python编程：从入门到实践",
			Author:    "埃里克·马瑟斯",
			Publisher: "人民邮电出版社",
			Year:      "2016",
			Holdings: []library.Holding{
				{CallNumber: "TP312.8/P93/1", Location: "鼓楼理科借阅区", Status: "可借"},
				{CallNumber: "TP312.8/P93/2", Location: "仙林理科借阅区", Status: "借出"},
				{CallNumber: "TP312.8/P93/3", Location: "浦口理科借阅区", Status: "可借"},
			},
		},
		{
			Title:     "Database Systems: Design, Implementation, and Management",
			Author:    "Carlos Coronel",
			Publisher: "Cengage Learning",
			Year:      "2018",
			Holdings: []library.Holding{
				{CallNumber: "TP311.13/C822", Location: "鼓楼外文借阅区", Status: "可借"},
				{CallNumber: "TP311.13/C822/2", Location: "苏州借阅区", Status: "借出"},
			},
		},
		{
			Title:     "Database Systems: The Complete Book",
			Author:    "Hector Garcia-Molina",
			Publisher: "Pearson",
			Year:      "2008",
			Holdings: []library.Holding{
				{CallNumber: "TP311.13/G216", Location: "仙林外文借阅区", Status: "可借"},
				{CallNumber: "TP311.13/G216/2", Location: "鼓楼外文借阅区", Status: "借出"},
			},
		},
		{
			Title:      "Fundamentals of Database Systems",
			Author:     "Ramez Elmasri",
			Publisher:  "Pearson",
			Year:       "2015",
			CallNumber: "TP311.13/E40",
			Location:   "仙林外文借阅区",
			Status:     "可借",
		},
		{
			Title:     "Introduction to Algorithms",
			Author:    "Thomas H. Cormen",
			Publisher: "MIT Press",
			Year:      "2009",
		},
	}
}

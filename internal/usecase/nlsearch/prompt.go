package nlsearch

import "strings"

const promptHeader = `你是一个专业的电影数据库查询助手。请根据用户用中文描述的电影需求，生成准确的SQL查询语句。

重要：数据库是openGauss（基于PostgreSQL），请使用PostgreSQL兼容的语法。

数据库表结构：
- movie表：movie_id(主键), rank(排名), cn_title(中文名), original_title(原名), year(年份), rating(评分), poster_url(海报), description(简介), countries(国家), languages(语言), durations(时长), release_date(上映日期)
- director表：director_id, name(导演名)
- actor表：actor_id, name(演员名)
- genre表：genre_id, name(类型名，如: 剧情, 喜剧, 动作, 科幻, 爱情, 动画, 犯罪, 惊悚, 冒险, 悬疑等)
- movie_director表：movie_id, director_id (电影-导演关联)
- movie_actor表：movie_id, actor_id (电影-演员关联)
- movie_genre表：movie_id, genre_id (电影-类型关联)

用户查询："`

const promptBody = `"

请分析用户查询，提取以下信息：
1. 电影类型（genre）：如科幻、爱情、喜剧等
2. 最低评分（min_rating）：如8.0分以上、9分等
3. 年份范围（year_start, year_end）：如2010年代、90年代等
4. 关键词（keywords）：电影名、导演名、演员名或主题关键词
5. 其他条件：如国家、语言等

生成SELECT查询，返回电影信息，包含：
- movie_id, rank, cn_title, original_title, year, rating, poster_url
- directors (导演，用逗号分隔)
- actors (演员，用逗号分隔)

查询要求：
1. 只生成一条SELECT语句，不要使用分号分隔多条语句
2. 最多返回50条记录
3. 按rank升序排列
4. 使用LEFT JOIN获取导演和演员信息
5. 使用GROUP BY和STRING_AGG聚合导演/演员
6. 对于关键词，使用ILIKE进行模糊匹配
7. 对于评分、大海等主题，可以在description、cn_title、original_title中搜索
8. 使用PostgreSQL兼容语法：COALESCE, STRING_AGG, ILIKE, EXISTS子查询等

用自然语言解释查询意图。

返回JSON格式：
{
    "sql": "完整的SELECT语句",
    "interpretation": "查询意图解释",
    "conditions": {
        "genre": "提取的类型",
        "min_rating": "最低评分",
        "year_range": "年份范围",
        "keywords": ["关键词1", "关键词2"]
    }
}
`

// Worked examples. Both statements are plain SELECTs.
const (
	seaExampleSQL = "SELECT m.movie_id, m.rank, m.cn_title, m.original_title, m.year, m.rating, m.poster_url, " +
		"COALESCE(STRING_AGG(DISTINCT d.name, ', '), '') AS directors, " +
		"COALESCE(STRING_AGG(DISTINCT a.name, ', '), '') AS actors " +
		"FROM movie m " +
		"LEFT JOIN movie_director md ON m.movie_id = md.movie_id " +
		"LEFT JOIN director d ON md.director_id = d.director_id " +
		"LEFT JOIN movie_actor ma ON m.movie_id = ma.movie_id " +
		"LEFT JOIN actor a ON ma.actor_id = a.actor_id " +
		"WHERE m.rating >= 9.0 AND (m.cn_title ILIKE '%大海%' OR m.original_title ILIKE '%sea%' " +
		"OR m.description ILIKE '%大海%' OR m.description ILIKE '%海洋%' OR m.description ILIKE '%海边%') " +
		"GROUP BY m.movie_id ORDER BY m.rank LIMIT 50"

	sciFiExampleSQL = "SELECT m.movie_id, m.rank, m.cn_title, m.original_title, m.year, m.rating, m.poster_url, " +
		"COALESCE(STRING_AGG(DISTINCT d.name, ', '), '') AS directors, " +
		"COALESCE(STRING_AGG(DISTINCT a.name, ', '), '') AS actors " +
		"FROM movie m " +
		"LEFT JOIN movie_director md ON m.movie_id = md.movie_id " +
		"LEFT JOIN director d ON md.director_id = d.director_id " +
		"LEFT JOIN movie_actor ma ON m.movie_id = ma.movie_id " +
		"LEFT JOIN actor a ON ma.actor_id = a.actor_id " +
		"WHERE m.rating >= 8.5 AND EXISTS (SELECT 1 FROM movie_genre mg JOIN genre g ON mg.genre_id = g.genre_id " +
		"WHERE mg.movie_id = m.movie_id AND g.name ILIKE '%科幻%') " +
		"AND (m.description ILIKE '%烧脑%' OR m.cn_title ILIKE '%烧脑%') " +
		"GROUP BY m.movie_id ORDER BY m.rank LIMIT 50"
)

const promptExamples = `
示例1：
用户查询："我要和大海有关的电影，而且评分不能少于9分"
返回：
{
    "sql": "` + seaExampleSQL + `",
    "interpretation": "搜索评分9.0分以上的与大海相关的电影",
    "conditions": {
        "genre": null,
        "min_rating": 9.0,
        "year_range": null,
        "keywords": ["大海", "海洋", "海边", "sea"]
    }
}

示例2：
用户查询："高分科幻烧脑电影"
返回：
{
    "sql": "` + sciFiExampleSQL + `",
    "interpretation": "搜索评分8.5分以上的科幻类型烧脑电影",
    "conditions": {
        "genre": "科幻",
        "min_rating": 8.5,
        "year_range": null,
        "keywords": ["烧脑"]
    }
}

请确保SQL语法正确，可以在openGauss中直接执行。`

// BuildPrompt renders the instruction template around the user's text.
// The text is embedded verbatim; the output depends on nothing else.
func BuildPrompt(userText string) string {
	var b strings.Builder
	b.Grow(len(promptHeader) + len(userText) + len(promptBody) + len(promptExamples))
	b.WriteString(promptHeader)
	b.WriteString(userText)
	b.WriteString(promptBody)
	b.WriteString(promptExamples)
	return b.String()
}
